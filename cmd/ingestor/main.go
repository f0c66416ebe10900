package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hoteliq/internal/adapters/observability"
	"hoteliq/internal/app"
	"hoteliq/internal/batch"
	"hoteliq/internal/domain"
	"hoteliq/internal/shared"
	"hoteliq/internal/storage"
)

type options struct {
	source       string
	files        []string
	hotelID      int64
	startDate    string
	workers      int
	metricsHotel int64
	from, to     string
	recomputeAll bool
}

func parseFlags(args []string) (options, error) {
	var (
		o     options
		files string
	)
	fs := flag.NewFlagSet("ingestor", flag.ContinueOnError)
	fs.StringVar(&o.source, "source", string(app.SourceCSV), "pipeline source: csv|database")
	fs.StringVar(&files, "file", "", "CSV file(s), comma separated")
	fs.Int64Var(&o.hotelID, "hotel-id", 0, "database source: only this hotel")
	fs.StringVar(&o.startDate, "start-date", "", "database source: check-in on or after YYYY-MM-DD")
	fs.IntVar(&o.workers, "workers", 4, "CSV files read and parsed concurrently")
	fs.Int64Var(&o.metricsHotel, "metrics-hotel", 0, "compute daily metrics for this hotel")
	fs.StringVar(&o.from, "from", "", "metrics range start YYYY-MM-DD")
	fs.StringVar(&o.to, "to", "", "metrics range end YYYY-MM-DD")
	fs.BoolVar(&o.recomputeAll, "recompute-all", false, "recompute metrics for every hotel")
	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	for _, f := range strings.Split(files, ",") {
		if f = strings.TrimSpace(f); f != "" {
			o.files = append(o.files, f)
		}
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("bad flags")
		os.Exit(2)
	}

	store, closer, err := storage.Open(ctx, cfg.StoreDriver, cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store open failed")
	}
	defer closer.Close()

	err = run(ctx, opts, store, cfg.Pipeline.BatchSize, os.Stdout)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidationFailed), errors.Is(err, domain.ErrInvalidInput):
		log.Error().Err(err).Msg("ingestor failed")
		closer.Close()
		os.Exit(2)
	default:
		log.Error().Err(err).Msg("ingestor failed")
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, store domain.Store, batchSize int, out io.Writer) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	calc := app.NewMetricsCalculator(store)

	switch {
	case o.recomputeAll:
		sum, err := calc.RecomputeAll(ctx)
		if err != nil {
			return err
		}
		return enc.Encode(sum)

	case o.metricsHotel > 0:
		from, err := domain.ParseDay(o.from)
		if err != nil {
			return fmt.Errorf("-from: %w", domain.ErrInvalidInput)
		}
		to, err := domain.ParseDay(o.to)
		if err != nil {
			return fmt.Errorf("-to: %w", domain.ErrInvalidInput)
		}
		ms, err := calc.ComputeRange(ctx, o.metricsHotel, from, to)
		if err != nil {
			return err
		}
		return enc.Encode(ms)
	}

	p := app.NewPipeline(store, batchSize)
	switch app.SourceKind(o.source) {
	case app.SourceDatabase:
		f := app.StoreFilter{}
		if o.hotelID > 0 {
			f.HotelID = &o.hotelID
		}
		if o.startDate != "" {
			d, err := domain.ParseDay(o.startDate)
			if err != nil {
				return fmt.Errorf("-start-date: %w", domain.ErrInvalidInput)
			}
			f.StartDate = &d
		}
		res, err := p.Run(ctx, app.Source{Kind: app.SourceDatabase, StoreFilter: f})
		if err != nil {
			return err
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
		return validationErr(res)

	case app.SourceCSV:
		if len(o.files) == 0 {
			return fmt.Errorf("-file is required for csv source: %w", domain.ErrInvalidInput)
		}
		results, err := runFiles(ctx, p, o.files, o.workers)
		if err != nil {
			return err
		}
		if len(results) == 1 {
			if err := enc.Encode(results[0]); err != nil {
				return err
			}
		} else if err := enc.Encode(results); err != nil {
			return err
		}
		for _, r := range results {
			if err := validationErr(r); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("source %q: %w", o.source, domain.ErrUnsupportedSource)
}

// runFiles reads and parses files with at most workers in flight, then runs
// the pipelines one file at a time in the order given so a later file sees
// the bookings an earlier one loaded.
func runFiles(ctx context.Context, p *app.Pipeline, files []string, workers int) ([]*app.RunResult, error) {
	tables := make([]*batch.Table, len(files))
	errs := make([]error, len(files))
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for i, path := range files {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			break
		}
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			defer sem.Release(1)

			t, err := p.Extract(ctx, app.Source{Kind: app.SourceCSV, Path: path})
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				return
			}
			tables[i] = t
		}(i, path)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	results := make([]*app.RunResult, len(files))
	for i, path := range files {
		start := time.Now()
		res, err := p.Run(ctx, app.Source{Kind: app.SourceCSV, Path: path, Table: tables[i]})
		if err != nil {
			log.Warn().Str("file", path).Err(err).Msg("pipeline failed")
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Info().Str("file", path).Bool("success", res.Success).Dur("took", time.Since(start)).Msg("file processed")
		results[i] = res
	}
	return results, nil
}

func validationErr(r *app.RunResult) error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%s: %w", r.Message, domain.ErrValidationFailed)
}
