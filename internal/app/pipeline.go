package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hoteliq/internal/adapters/observability"
	"hoteliq/internal/batch"
	"hoteliq/internal/domain"
	"hoteliq/internal/features"
	"hoteliq/internal/quality"
)

const DefaultBatchSize = 100

type SourceKind string

const (
	SourceCSV      SourceKind = "csv"
	SourceDatabase SourceKind = "database"
)

// Source selects where a pipeline run extracts from. CSV sources use Table
// when it was already read, then Reader, else the file at Path. Database
// sources apply the StoreFilter.
type Source struct {
	Kind   SourceKind
	Path   string
	Reader io.Reader
	Table  *batch.Table
	StoreFilter
}

type StoreFilter struct {
	HotelID   *int64
	StartDate *time.Time
}

type RowOutcome string

const (
	RowLoaded  RowOutcome = "loaded"
	RowSkipped RowOutcome = "skipped"
	RowError   RowOutcome = "error"
)

type RowResult struct {
	Index   int
	Key     domain.BookingKey
	Outcome RowOutcome
	Err     error
}

type BatchResult struct {
	Number    int
	Rows      []RowResult
	Committed bool
	Err       error
}

type LoadResult struct {
	Loaded        int `json:"loaded"`
	Skipped       int `json:"skipped"`
	Errors        int `json:"errors"`
	Total         int `json:"total"`
	Batches       int `json:"batches"`
	FailedBatches int `json:"failed_batches"`

	BatchResults []BatchResult `json:"-"`
}

type RunResult struct {
	RunID            string            `json:"run_id"`
	Success          bool              `json:"success"`
	DurationSeconds  float64           `json:"duration_seconds"`
	ValidationReport *quality.Report   `json:"validation_report"`
	LoadResult       *LoadResult       `json:"load_result,omitempty"`
	FeatureSummary   *features.Summary `json:"feature_summary,omitempty"`
	Message          string            `json:"message"`
}

// Pipeline is the extract, validate, clean, engineer and load flow.
type Pipeline struct {
	store     domain.Store
	engineer  *features.Engineer
	batchSize int
	now       func() time.Time

	// loads from concurrent runs would both miss each other's keys
	loadMu sync.Mutex
}

func NewPipeline(s domain.Store, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Pipeline{
		store:     s,
		engineer:  &features.Engineer{Capacity: hotelCapacities{hotels: s}},
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (p *Pipeline) Run(ctx context.Context, src Source) (*RunResult, error) {
	start := p.now()
	res := &RunResult{RunID: uuid.NewString()}
	logger := log.With().Str("run_id", res.RunID).Str("source", string(src.Kind)).Logger()
	logger.Info().Msg("pipeline started")

	t, err := p.Extract(ctx, src)
	if err != nil {
		observability.ObservePipeline("error", p.now().Sub(start), 0, 0, 0)
		return nil, err
	}
	logger.Info().Int("rows", t.Len()).Msg("extracted")

	report := quality.Validate(t)
	res.ValidationReport = report
	if !report.IsValid() {
		res.Message = "Pipeline failed at validation stage"
		res.DurationSeconds = p.now().Sub(start).Seconds()
		observability.ObservePipeline("invalid", p.now().Sub(start), 0, 0, 0)
		logger.Warn().Strs("errors", report.Errors).Msg("validation failed")
		return res, nil
	}

	frame, err := p.transform(ctx, t)
	if err != nil {
		observability.ObservePipeline("error", p.now().Sub(start), 0, 0, 0)
		return nil, err
	}

	lr, err := p.Load(ctx, frame.Records())
	if err != nil {
		observability.ObservePipeline("error", p.now().Sub(start), 0, 0, 0)
		return nil, err
	}
	summary := features.Summarize(frame)

	res.Success = true
	res.LoadResult = lr
	res.FeatureSummary = &summary
	res.Message = "ETL pipeline completed successfully"
	res.DurationSeconds = p.now().Sub(start).Seconds()

	observability.ObservePipeline("success", p.now().Sub(start), lr.Loaded, lr.Skipped, lr.Errors)
	logger.Info().
		Int("loaded", lr.Loaded).Int("skipped", lr.Skipped).Int("errors", lr.Errors).
		Float64("duration_seconds", res.DurationSeconds).
		Msg("pipeline complete")
	return res, nil
}

// Extract reads the raw batch for src.
func (p *Pipeline) Extract(ctx context.Context, src Source) (*batch.Table, error) {
	switch src.Kind {
	case SourceCSV:
		if src.Table != nil {
			return src.Table, nil
		}
		if src.Reader != nil {
			return batch.ReadCSV(src.Reader)
		}
		if src.Path == "" {
			return nil, fmt.Errorf("csv source needs a file: %w", domain.ErrInvalidInput)
		}
		return batch.ReadCSVFile(src.Path)
	case SourceDatabase:
		return p.extractStore(ctx, src.StoreFilter)
	default:
		return nil, fmt.Errorf("source %q: %w", src.Kind, domain.ErrUnsupportedSource)
	}
}

func (p *Pipeline) extractStore(ctx context.Context, f StoreFilter) (*batch.Table, error) {
	bs, err := p.store.ListBookings(ctx, domain.BookingsQuery{HotelID: f.HotelID, CheckInFrom: f.StartDate})
	if err != nil {
		return nil, fmt.Errorf("extract bookings: %w", err)
	}
	return batch.FromBookings(bs), nil
}

func (p *Pipeline) transform(ctx context.Context, t *batch.Table) (features.Frame, error) {
	recs, err := quality.Clean(t, p.now())
	if err != nil {
		return features.Frame{}, fmt.Errorf("clean: %w", err)
	}
	return p.engineer.Apply(ctx, recs)
}

// Load writes recs in batches, one store transaction per batch. Existing
// (hotel_id, room_id, check_in_date) keys are skipped. A failed commit rolls
// back only its batch; the rows it had loaded are counted as errors. Loads on
// one Pipeline run one at a time.
func (p *Pipeline) Load(ctx context.Context, recs []batch.Record) (*LoadResult, error) {
	p.loadMu.Lock()
	defer p.loadMu.Unlock()

	lr := &LoadResult{Total: len(recs)}

	for lo := 0; lo < len(recs); lo += p.batchSize {
		if err := ctx.Err(); err != nil {
			return lr, err
		}
		hi := min(lo+p.batchSize, len(recs))

		br, err := p.loadBatch(ctx, lr.Batches+1, lo, recs[lo:hi])
		if err != nil {
			return lr, err
		}
		lr.Batches++
		lr.BatchResults = append(lr.BatchResults, br)
		if !br.Committed {
			lr.FailedBatches++
		}
		for _, r := range br.Rows {
			switch r.Outcome {
			case RowLoaded:
				lr.Loaded++
			case RowSkipped:
				lr.Skipped++
			case RowError:
				lr.Errors++
			}
		}
	}
	return lr, nil
}

func (p *Pipeline) loadBatch(ctx context.Context, number, offset int, recs []batch.Record) (BatchResult, error) {
	br := BatchResult{Number: number, Rows: make([]RowResult, 0, len(recs))}

	tx, err := p.store.BeginLoad(ctx)
	if err != nil {
		return br, fmt.Errorf("batch %d: begin: %w", number, err)
	}

	for i, rec := range recs {
		rr := RowResult{Index: offset + i, Key: rec.Key()}
		exists, err := tx.Exists(ctx, rr.Key)
		switch {
		case err != nil:
			rr.Outcome, rr.Err = RowError, err
		case exists:
			rr.Outcome = RowSkipped
		default:
			if err := tx.Insert(ctx, bookingFromRecord(rec)); err != nil {
				rr.Outcome, rr.Err = RowError, err
			} else {
				rr.Outcome = RowLoaded
			}
		}
		if rr.Err != nil {
			log.Warn().Err(rr.Err).Int("row", rr.Index).Str("key", rr.Key.String()).Msg("row load failed")
		}
		br.Rows = append(br.Rows, rr)
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		br.Err = err
		for i := range br.Rows {
			if br.Rows[i].Outcome == RowLoaded {
				br.Rows[i].Outcome, br.Rows[i].Err = RowError, err
			}
		}
		log.Error().Err(err).Int("batch", number).Msg("batch commit failed; rolled back")
		return br, nil
	}
	br.Committed = true
	log.Debug().Int("batch", number).Int("rows", len(recs)).Msg("batch committed")
	return br, nil
}

// Check validates stored bookings without changing anything.
func (p *Pipeline) Check(ctx context.Context, f StoreFilter) (*quality.Report, error) {
	t, err := p.extractStore(ctx, f)
	if err != nil {
		return nil, err
	}
	return quality.Validate(t), nil
}

type FeaturePreview struct {
	FeatureSummary *features.Summary `json:"feature_summary,omitempty"`
	SampleRecords  []features.Row    `json:"sample_records,omitempty"`
	Message        string            `json:"message,omitempty"`
}

const previewSamples = 5

// Preview engineers features over the first limit stored bookings.
func (p *Pipeline) Preview(ctx context.Context, limit int) (*FeaturePreview, error) {
	if limit <= 0 {
		limit = DefaultBatchSize
	}
	t, err := p.extractStore(ctx, StoreFilter{})
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return &FeaturePreview{Message: "No bookings found"}, nil
	}

	frame, err := p.transform(ctx, t.Head(limit))
	if err != nil {
		return nil, err
	}
	s := features.Summarize(frame)
	n := min(previewSamples, len(frame.Rows))
	return &FeaturePreview{FeatureSummary: &s, SampleRecords: frame.Rows[:n]}, nil
}
