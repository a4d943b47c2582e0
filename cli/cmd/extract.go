package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/pithecene-io/couchpart/adapter"
	"github.com/pithecene-io/couchpart/adapter/redis"
	"github.com/pithecene-io/couchpart/adapter/webhook"
	"github.com/pithecene-io/couchpart/cli/config"
	"github.com/pithecene-io/couchpart/cli/render"
	"github.com/pithecene-io/couchpart/couch"
	"github.com/pithecene-io/couchpart/extract"
	"github.com/pithecene-io/couchpart/frame"
	"github.com/pithecene-io/couchpart/iox"
	"github.com/pithecene-io/couchpart/log"
	"github.com/pithecene-io/couchpart/metrics"
	"github.com/pithecene-io/couchpart/store"
	"github.com/pithecene-io/couchpart/types"
)

// ExtractCommand returns the extract command.
// Extract stores a document and its attachments, then optionally publishes
// a document_extracted event.
func ExtractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Store a document response's attachments",
		ArgsUsage: "<file|->",
		Flags: append(InputFlags(),
			FormatFlag,
			NoColorFlag,
			&cli.StringFlag{
				Name:  "storage-backend",
				Usage: "Storage backend: fs, s3, memory (default fs)",
			},
			&cli.StringFlag{
				Name:  "storage-path",
				Usage: "fs: root directory, s3: bucket/prefix",
			},
			&cli.StringFlag{
				Name:  "storage-region",
				Usage: "AWS region for S3 backend (optional, uses default chain)",
			},
			&cli.StringFlag{
				Name:  "storage-endpoint",
				Usage: "Custom S3 endpoint for S3-compatible providers",
			},
			&cli.BoolFlag{
				Name:  "storage-s3-path-style",
				Usage: "Force path-style S3 addressing",
			},
			&cli.StringFlag{
				Name:  "frames",
				Usage: `Write chunk frames to a file instead of storage ("-" for stdout)`,
			},
			&cli.IntFlag{
				Name:  "chunk-size",
				Usage: "Frame chunk size in bytes (default and max 8 MiB)",
			},
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Event adapter: webhook, redis (default none)",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Webhook endpoint or redis:// URL",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel",
			},
			&cli.StringSliceFlag{
				Name:  "adapter-header",
				Usage: `Webhook request header as "Name: value" (repeatable)`,
			},
			&cli.DurationFlag{
				Name:  "adapter-timeout",
				Usage: "Per-publish timeout",
			},
			&cli.IntFlag{
				Name:  "adapter-retries",
				Usage: "Publish retry attempts",
			},
			&cli.StringFlag{
				Name:  "run-id",
				Usage: "Extraction run id (default: generated UUID)",
			},
			&cli.BoolFlag{
				Name:  "skip-document",
				Usage: "Do not store document.json",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: `Write the extraction report as JSON to a file ("-" for stderr)`,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level: debug, info, warn, error",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not render the report",
			},
		),
		Action: extractAction,
	}
}

// storageChoice holds resolved storage configuration.
type storageChoice struct {
	backend   string // "fs", "s3" or "memory"
	path      string // fs: directory, s3: bucket/prefix
	region    string
	endpoint  string
	pathStyle bool
}

// adapterChoice holds resolved adapter configuration.
type adapterChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries int
}

func extractAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c, cfg.Output.Format)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	storage := resolveStorage(c, cfg)
	adapterCfg, err := resolveAdapter(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}

	runID := c.String("run-id")
	if runID == "" {
		runID = uuid.NewString()
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, err := openInput(c, cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	source := in.Source
	backendLabel := storage.backend
	if c.String("frames") != "" {
		backendLabel = "frames"
	}
	collector := metrics.NewCollector(backendLabel, adapterCfg.kind, runID)
	logLevel := stringFlag(c, "log-level", cfg.Log.Level)

	doc, err := in.Read()
	if err != nil {
		collector.IncParseFailure()
		log.NewLoggerWithLevel(&types.DocumentMeta{RunID: runID, DocID: types.UnknownDocID, Source: &source}, logLevel).
			Error("document read failed", map[string]any{"error": err.Error()})
		return exitError("read document", err)
	}

	meta := &types.DocumentMeta{RunID: runID, DocID: doc.ID(), Rev: doc.Revision(), Source: &source}
	if meta.DocID == "" {
		meta.DocID = types.UnknownDocID
	}
	logger := log.NewLoggerWithLevel(meta, logLevel)
	defer func() { _ = logger.Sync() }()

	// Frames on stdout leave stderr for the report.
	out := io.Writer(os.Stdout)
	sink, storagePath, closeOut, err := buildSink(ctx, c.String("frames"), c.Int("chunk-size"), cfg.Output.ChunkSize, storage)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to create sink: %v", err), exitFailure)
	}
	if c.String("frames") == "-" {
		out = os.Stderr
	}

	pub, err := buildAdapter(adapterCfg)
	if err != nil {
		iox.DiscardErr(closeOut)
		return cli.Exit(fmt.Sprintf("failed to create adapter: %v", err), exitFailure)
	}

	report, runErr := extract.Run(ctx, doc, extract.Options{
		Sink:         store.NewInstrumentedSink(sink, collector),
		Adapter:      pub,
		Collector:    collector,
		Logger:       logger,
		RunID:        runID,
		Source:       source,
		StoragePath:  storagePath,
		SkipDocument: c.Bool("skip-document"),
	})

	closeErr := sink.Close()
	if pub != nil {
		closeErr = multierr.Append(closeErr, pub.Close())
	}
	closeErr = multierr.Append(closeErr, closeOut())
	if closeErr != nil {
		logger.Warn("close failed", map[string]any{"error": closeErr.Error()})
	}

	logSnapshot(logger, collector.Snapshot())

	if path := c.String("report"); path != "" && report != nil {
		if err := extract.WriteReport(report, path); err != nil {
			runErr = multierr.Append(runErr, err)
		}
	}

	if !c.Bool("quiet") && report != nil && c.String("report") != "-" {
		if err := r.WithOutput(out).Render(report); err != nil {
			runErr = multierr.Append(runErr, err)
		}
	}

	if runErr != nil {
		return exitError("extract", runErr)
	}
	if closeErr != nil {
		return exitError("close", closeErr)
	}
	return nil
}

func resolveStorage(c *cli.Context, cfg *config.Config) storageChoice {
	choice := storageChoice{
		backend:   stringFlag(c, "storage-backend", cfg.Storage.Backend),
		path:      stringFlag(c, "storage-path", cfg.Storage.Path),
		region:    stringFlag(c, "storage-region", cfg.Storage.Region),
		endpoint:  stringFlag(c, "storage-endpoint", cfg.Storage.Endpoint),
		pathStyle: cfg.Storage.S3PathStyle,
	}
	if c.IsSet("storage-s3-path-style") {
		choice.pathStyle = c.Bool("storage-s3-path-style")
	}
	if choice.backend == "" {
		choice.backend = "fs"
	}
	return choice
}

func resolveAdapter(c *cli.Context, cfg *config.Config) (adapterChoice, error) {
	choice := adapterChoice{
		kind:    stringFlag(c, "adapter", cfg.Adapter.Type),
		url:     stringFlag(c, "adapter-url", cfg.Adapter.URL),
		channel: stringFlag(c, "adapter-channel", cfg.Adapter.Channel),
		headers: map[string]string{},
		timeout: cfg.Adapter.Timeout.Duration,
		retries: -1,
	}
	for k, v := range cfg.Adapter.Headers {
		choice.headers[k] = v
	}
	for _, line := range c.StringSlice("adapter-header") {
		h, err := couch.ParseHeader(line)
		if err != nil {
			return choice, fmt.Errorf("--adapter-header: %w", err)
		}
		choice.headers[h.Name] = h.Value
	}
	if c.IsSet("adapter-timeout") {
		choice.timeout = c.Duration("adapter-timeout")
	}
	switch {
	case c.IsSet("adapter-retries"):
		choice.retries = c.Int("adapter-retries")
	case cfg.Adapter.Retries != nil:
		choice.retries = *cfg.Adapter.Retries
	}

	switch choice.kind {
	case "", "webhook", "redis":
	default:
		return choice, fmt.Errorf("unknown adapter: %s (must be webhook or redis)", choice.kind)
	}
	if choice.kind != "" && choice.url == "" {
		return choice, fmt.Errorf("--adapter-url is required for the %s adapter", choice.kind)
	}
	return choice, nil
}

// buildSink creates the sink extraction writes to and a label for it. The
// returned close func releases any frame output file.
func buildSink(ctx context.Context, framesPath string, chunkFlag, chunkConfig int, choice storageChoice) (store.Sink, string, func() error, error) {
	noop := func() error { return nil }

	if framesPath != "" {
		chunkSize := chunkFlag
		if chunkSize == 0 {
			chunkSize = chunkConfig
		}
		if framesPath == "-" {
			w := bufio.NewWriter(os.Stdout)
			return frame.NewEncoder(w, chunkSize), "frames:-", w.Flush, nil
		}
		f, err := os.Create(framesPath)
		if err != nil {
			return nil, "", noop, err
		}
		w := bufio.NewWriter(f)
		closeFn := func() error {
			return multierr.Combine(w.Flush(), f.Close())
		}
		return frame.NewEncoder(w, chunkSize), "frames:" + framesPath, closeFn, nil
	}

	switch choice.backend {
	case "fs":
		if choice.path == "" {
			return nil, "", noop, fmt.Errorf("--storage-path is required for the fs backend")
		}
		return store.NewFSSink(choice.path), "fs:" + choice.path, noop, nil
	case "memory":
		return store.NewSinkWithFactory(lode.NewMemoryFactory()), "memory:", noop, nil
	case "s3":
		if choice.path == "" {
			return nil, "", noop, fmt.Errorf("--storage-path is required for the s3 backend")
		}
		bucket, prefix := store.ParseS3Path(choice.path)
		sink, err := store.NewS3Sink(ctx, store.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       choice.region,
			Endpoint:     choice.endpoint,
			UsePathStyle: choice.pathStyle,
		})
		if err != nil {
			return nil, "", noop, err
		}
		return sink, "s3://" + choice.path, noop, nil
	default:
		return nil, "", noop, fmt.Errorf("unknown storage-backend: %s (must be fs, s3 or memory)", choice.backend)
	}
}

// buildAdapter returns nil when no adapter is configured.
func buildAdapter(choice adapterChoice) (adapter.Adapter, error) {
	switch choice.kind {
	case "":
		return nil, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if choice.retries >= 0 {
			retries = choice.retries
		}
		a, err := webhook.New(webhook.Config{
			URL:     choice.url,
			Headers: choice.headers,
			Timeout: choice.timeout,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "redis":
		retries := redis.DefaultRetries
		if choice.retries >= 0 {
			retries = choice.retries
		}
		a, err := redis.New(redis.Config{
			URL:     choice.url,
			Channel: choice.channel,
			Timeout: choice.timeout,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown adapter: %s", choice.kind)
	}
}

func logSnapshot(logger *log.Logger, snap metrics.Snapshot) {
	logger.Info("extraction metrics", map[string]any{
		"documents_read":        snap.DocumentsRead,
		"documents_extracted":   snap.DocumentsExtracted,
		"attachments_extracted": snap.AttachmentsExtracted,
		"attachment_bytes":      snap.AttachmentBytes,
		"sequence_mismatches":   snap.SequenceMismatches,
		"store_write_success":   snap.StoreWriteSuccess,
		"store_write_failure":   snap.StoreWriteFailure,
		"publish_success":       snap.PublishSuccess,
		"publish_failure":       snap.PublishFailure,
		"storage_backend":       snap.StorageBackend,
		"adapter":               snap.Adapter,
	})
}
