// Package paste turns a paste event into a submission batch: file payloads
// are taken as-is, text payloads are scanned for URLs that are fetched into
// binary items. Paste never carries directory semantics.
package paste

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrijs2005/picdrop/internal/fetchx"
	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Event is what the platform glue hands us: zero or more pasted file
// payloads and zero or more pasted text payloads.
type Event struct {
	Files []*item.Binary
	Texts []string
}

type Ingestor struct {
	client *http.Client
	log    logging.Logger
}

func NewIngestor(client *http.Client, log logging.Logger) *Ingestor {
	return &Ingestor{client: client, log: log}
}

// candidateURLs normalizes text to LF-only line breaks and keeps the lines
// that parse as absolute http(s) URLs.
func candidateURLs(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	var urls []string
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if fetchx.IsFetchable(line) {
			urls = append(urls, line)
		}
	}
	return urls
}

// Collect resolves ev into one submission batch. Every URL is fetched
// independently; a failed fetch is logged and dropped without affecting its
// siblings, so Collect never returns an error.
func (in *Ingestor) Collect(ctx context.Context, ev Event) []*item.Binary {
	batch := append([]*item.Binary(nil), ev.Files...)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, text := range ev.Texts {
		for _, rawURL := range candidateURLs(text) {
			g.Go(func() error {
				b, err := fetchx.Fetch(gctx, in.client, rawURL)
				if err != nil {
					if in.log != nil {
						in.log.Warn(ctx, "pasted url dropped", "url", rawURL, "error", err)
					}
					return nil
				}
				mu.Lock()
				batch = append(batch, b)
				mu.Unlock()
				return nil
			})
		}
	}

	_ = g.Wait()
	return batch
}
