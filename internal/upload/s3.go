package upload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/picdrop/internal/common"
	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/logging"
	"github.com/dmitrijs2005/picdrop/internal/transform"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Seams for tests.
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(ctx context.Context, client *s3.Client, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return client.PutObject(ctx, in)
	}
)

// S3Config describes the S3-compatible image host uploads go to.
type S3Config struct {
	BaseEndpoint string
	Region       string
	Bucket       string
	AccessKey    string // MINIO_ROOT_USER
	SecretKey    string // MINIO_ROOT_PASSWORD
}

// S3Backend stores payloads as objects in a bucket. The persistent
// identifier handed back is a dash-less uuid; the object key embeds the
// upload date so buckets stay browsable.
type S3Backend struct {
	cfg S3Config
	log logging.Logger

	once    sync.Once
	client  *s3.Client
	errInit error
}

func NewS3Backend(cfg S3Config, log logging.Logger) *S3Backend {
	return &S3Backend{cfg: cfg, log: log}
}

func (b *S3Backend) getClient(ctx context.Context) (*s3.Client, error) {
	b.once.Do(func() {
		cfg, err := loadDefaultAWSConfig(ctx,
			config.WithRegion(b.cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				b.cfg.AccessKey,
				b.cfg.SecretKey,
				"",
			)))
		if err != nil {
			b.errInit = err
			return
		}
		b.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(b.cfg.BaseEndpoint)
			o.UsePathStyle = true
		})
	})
	return b.client, b.errInit
}

func newPID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func storageKey(pid string) string {
	d := time.Now()
	return fmt.Sprintf("pics/%d/%d/%d/%s", d.Year(), d.Month(), d.Day(), pid)
}

// imageSize reads the pixel dimensions without decoding the full image.
// Unknown formats yield (0, 0).
func imageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

// Upload sniffs the payload's media type, rejects anything that is not a
// supported image, and puts the object into the configured bucket.
func (b *S3Backend) Upload(ctx context.Context, bin *item.Binary) (*item.Resolved, error) {
	mime := http.DetectContentType(bin.Data)
	if _, ok := transform.SuffixForMime(mime); !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedMediaType, mime)
	}

	client, err := b.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("building s3 client: %w", err)
	}

	pid := newPID()
	key := storageKey(pid)
	width, height := imageSize(bin.Data)

	_, err = putObject(ctx, client, &s3.PutObjectInput{
		Bucket:      aws.String(b.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(bin.Data),
		ContentType: aws.String(mime),
	})
	if err != nil {
		return nil, fmt.Errorf("putting object %s: %w", key, err)
	}

	if b.log != nil {
		b.log.Debug(ctx, "object stored", "key", key, "mime", mime, "bytes", len(bin.Data))
	}

	return &item.Resolved{
		PID:      pid,
		MimeType: mime,
		Width:    width,
		Height:   height,
		Source:   bin,
	}, nil
}
