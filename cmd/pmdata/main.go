// Command pmdata pulls Polymarket data from the command line: closed events
// over a date range, price history for a market, or a high-frequency
// sub-minute reconstruction. Results land in the on-disk cache; a summary
// goes to stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"polymarket-data/pkg/cache"
	"polymarket-data/pkg/client"
	"polymarket-data/pkg/collect"
	"polymarket-data/pkg/config"
	"polymarket-data/pkg/events"
	"polymarket-data/pkg/logging"
	"polymarket-data/pkg/prices"
	"polymarket-data/pkg/ratelimit"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file (optional)")
		mode       = flag.String("mode", "events", "what to pull: events, prices or hft")

		startDate = flag.String("start", "", "start date for events, YYYY-MM-DD (required for -mode events)")
		endDate   = flag.String("end", "", "end date for events, YYYY-MM-DD (optional)")
		tagID     = flag.String("tag", "", "restrict events to one tag id")
		maxPages  = flag.Int("max-pages", 0, "cap pagination at this many pages (0 = no cap)")

		market      = flag.String("market", "", "CLOB token id (required for -mode prices/hft)")
		interval    = flag.String("interval", "", "symbolic lookback: 1h, 6h, 1d, 1w, 1m, max")
		startTs     = flag.Int64("start-ts", 0, "window start, unix seconds")
		endTs       = flag.Int64("end-ts", 0, "window end, unix seconds")
		maxBars     = flag.Int("max-bars", 0, "bar budget for anchored windows")
		fidelity    = flag.Int("fidelity", 0, "resolution in minutes (prices)")
		fidelitySec = flag.Int("fidelity-seconds", 0, "effective sampling interval in seconds (hft)")

		force = flag.Bool("force", false, "override the large-pull guardrails / refetch cached hft results")
		out   = flag.String("out", "", "write the result JSON to this file instead of a summary only")
	)
	flag.Parse()

	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAndValidate(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Logging.Level),
		Pretty: cfg.Logging.Pretty,
	})
	logger = logger.With().Str("run_id", uuid.NewString()).Logger()

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, runArgs{
		mode:        *mode,
		startDate:   *startDate,
		endDate:     *endDate,
		tagID:       *tagID,
		maxPages:    *maxPages,
		market:      *market,
		interval:    *interval,
		startTs:     *startTs,
		endTs:       *endTs,
		maxBars:     *maxBars,
		fidelity:    *fidelity,
		fidelitySec: *fidelitySec,
		force:       *force,
		out:         *out,
	}); err != nil {
		logger.Error().Err(err).Msg("Pull failed")
		os.Exit(1)
	}
}

type runArgs struct {
	mode        string
	startDate   string
	endDate     string
	tagID       string
	maxPages    int
	market      string
	interval    string
	startTs     int64
	endTs       int64
	maxBars     int
	fidelity    int
	fidelitySec int
	force       bool
	out         string
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, args runArgs) error {
	apiClient, err := client.New(client.Config{
		GammaURL:   cfg.API.GammaURL,
		CLOBURL:    cfg.API.CLOBURL,
		UserAgent:  cfg.API.UserAgent,
		Timeout:    cfg.API.Timeout,
		MaxRetries: cfg.API.MaxRetries,
	}, logger)
	if err != nil {
		return err
	}

	store := cache.NewStore(cfg.Cache.Dir, logger)
	limiter := ratelimit.NewLimiter(cfg.API.RateLimitDelay, logger)

	switch args.mode {
	case "events":
		return runEvents(ctx, cfg, logger, apiClient, store, limiter, args)
	case "prices":
		return runPrices(ctx, cfg, logger, apiClient, store, limiter, args)
	case "hft":
		return runHFT(ctx, logger, apiClient, store, limiter, args)
	default:
		return fmt.Errorf("unknown mode %q: want events, prices or hft", args.mode)
	}
}

func runEvents(ctx context.Context, cfg *config.Config, logger zerolog.Logger,
	apiClient *client.Client, store *cache.Store, limiter *ratelimit.Limiter, args runArgs) error {

	if args.startDate == "" {
		return fmt.Errorf("-start is required for -mode events")
	}
	start, err := time.Parse("2006-01-02", args.startDate)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}

	req := collect.ClosedEventsRequest{
		StartDateMin: start,
		TagID:        args.tagID,
		MaxPages:     args.maxPages,
		ForceLarge:   args.force,
	}
	if args.endDate != "" {
		end, err := time.Parse("2006-01-02", args.endDate)
		if err != nil {
			return fmt.Errorf("parse -end: %w", err)
		}
		req.EndDateMax = end
	}

	fetcher := events.NewFetcher(events.NewAPISource(apiClient), store, limiter, logger)
	collector := collect.New(fetcher, cfg.Fetch, logger)

	result, err := collector.ClosedEvents(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("fetched %d events\n", len(result))
	return writeOut(args.out, result)
}

func runPrices(ctx context.Context, cfg *config.Config, logger zerolog.Logger,
	apiClient *client.Client, store *cache.Store, limiter *ratelimit.Limiter, args runArgs) error {

	if args.market == "" {
		return fmt.Errorf("-market is required for -mode prices")
	}

	fetcher := prices.NewFetcher(apiClient, store, limiter, logger)
	points, err := fetcher.History(ctx, prices.HistoryRequest{
		Market:      args.market,
		Interval:    prices.Interval(args.interval),
		StartTs:     args.startTs,
		EndTs:       args.endTs,
		MaxBars:     args.maxBars,
		FidelityMin: args.fidelity,
		ChunkDays:   cfg.Fetch.ChunkDays,
	})
	if err != nil {
		return err
	}

	fmt.Printf("fetched %d price points\n", len(points))
	return writeOut(args.out, points)
}

func runHFT(ctx context.Context, logger zerolog.Logger,
	apiClient *client.Client, store *cache.Store, limiter *ratelimit.Limiter, args runArgs) error {

	if args.market == "" {
		return fmt.Errorf("-market is required for -mode hft")
	}

	fetcher := prices.NewFetcher(apiClient, store, limiter, logger)
	points, err := fetcher.HighFrequency(ctx, prices.HFTRequest{
		Market:          args.market,
		StartTs:         args.startTs,
		EndTs:           args.endTs,
		FidelitySeconds: args.fidelitySec,
		Force:           args.force,
	})
	if err != nil {
		return err
	}

	fmt.Printf("fetched %d high-frequency price points\n", len(points))
	return writeOut(args.out, points)
}

func writeOut(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func serveMetrics(cfg *config.Config, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})

	logger.Info().Str("addr", cfg.Metrics.Addr).Str("path", cfg.Metrics.Path).Msg("Serving metrics")
	if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics listener failed")
	}
}
