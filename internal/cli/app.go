package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrijs2005/picdrop/internal/clipx"
	"github.com/dmitrijs2005/picdrop/internal/config"
	"github.com/dmitrijs2005/picdrop/internal/dispatch"
	"github.com/dmitrijs2005/picdrop/internal/logging"
	"github.com/dmitrijs2005/picdrop/internal/notify"
	"github.com/dmitrijs2005/picdrop/internal/paste"
	"github.com/dmitrijs2005/picdrop/internal/settings"
	"github.com/dmitrijs2005/picdrop/internal/store"
	"github.com/dmitrijs2005/picdrop/internal/upload"
	"github.com/dmitrijs2005/picdrop/internal/watch"
	"golang.org/x/term"
)

// App wires the upload engine together and backs the REPL commands.
type App struct {
	config     *config.Config
	log        logging.Logger
	db         *sql.DB
	settings   *settings.Manager
	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	ingestor   *paste.Ingestor
	notifier   notify.Notifier
	watcher    *watch.Watcher
	watchOnce  sync.Once

	// clipWrite is swapped out in tests.
	clipWrite func(string) error
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	db, err := store.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	st := settings.NewManager(store.NewSQLiteRepository(db), log, c.PublicHost)
	if err := st.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	backend := upload.NewS3Backend(upload.S3Config{
		BaseEndpoint: c.S3BaseEndpoint,
		Region:       c.S3Region,
		Bucket:       c.S3Bucket,
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
	}, log)

	registry := dispatch.NewRegistry(st.Snapshot, log)
	st.OnRepaint(registry.RepaintAll)

	notifier := notify.NewLogNotifier(log)
	dsp := dispatch.New(upload.NewQueue(backend, log), registry, notifier, log)

	a := &App{
		config:     c,
		log:        log,
		db:         db,
		settings:   st,
		registry:   registry,
		dispatcher: dsp,
		ingestor:   paste.NewIngestor(&http.Client{Timeout: c.FetchTimeout}, log),
		notifier:   notifier,
		clipWrite:  clipx.Write,
	}
	if c.WatchDir != "" {
		a.watcher = watch.New(c.WatchDir, dsp.Submit, log)
	}
	return a, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) Run(ctx context.Context) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Println("picdrop (type 'help' for commands)")
	}
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

func (a *App) status() string {
	mode := "single"
	if a.settings.BatchCopy() {
		mode = "batch"
	}
	return fmt.Sprintf("(%s, %d sections)", mode, a.registry.Len())
}
