package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"pncp/internal/apperrors"
	"pncp/internal/config"
	"pncp/internal/logging"
	"pncp/internal/metrics"
	"pncp/internal/models"
	"pncp/internal/pkg/pncp"

	"github.com/hibiken/asynq"
)

const workerSuffix = "-worker"

// Upstream fetches one page of a PNCP report.
type Upstream interface {
	FetchPage(ctx context.Context, p pncp.Params) (*pncp.Page, error)
}

// Store is the persistence a sync cycle needs.
type Store interface {
	RecordCall(ctx context.Context, marker string, params any, page *pncp.Page) (*models.APIResponseMetadata, error)
	UpsertRecords(ctx context.Context, recs []models.Record) (int, error)
	ActiveModalidades(ctx context.Context, limit int) ([]models.ModalidadeContratacao, error)
}

// CycleResult is what one fetch-normalize-persist cycle produced.
type CycleResult struct {
	Page    *pncp.Page
	Records int
	Written int
}

// BatchOptions tunes one background batch. Zero values take the processor's defaults.
type BatchOptions struct {
	MaxTargets int
	Delay      time.Duration
}

// BatchReport summarizes a background batch. Err is set only when the target
// list could not be read.
type BatchReport struct {
	RunID     string
	Targets   int
	Succeeded int
	Failed    int
	Written   int
	Stopped   bool
	Duration  time.Duration
	Err       error
}

// TaskProcessor runs sync cycles and holds dependencies for the task handlers
type TaskProcessor struct {
	upstream Upstream
	store    Store

	maxTargets  int
	targetDelay time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

type Option func(*TaskProcessor)

// WithSleep replaces the inter-target wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *TaskProcessor) { p.sleep = sleep }
}

// WithClock replaces the clock used for the batch's dataFinal.
func WithClock(now func() time.Time) Option {
	return func(p *TaskProcessor) { p.now = now }
}

func NewTaskProcessor(upstream Upstream, store Store, cfg *config.Config, opts ...Option) *TaskProcessor {
	p := &TaskProcessor{
		upstream:    upstream,
		store:       store,
		maxTargets:  config.DefaultSyncMaxTargets,
		targetDelay: config.DefaultSyncTargetDelay,
		sleep:       sleepContext,
		now:         time.Now,
	}

	if cfg != nil {
		if cfg.SyncMaxTargets > 0 {
			p.maxTargets = cfg.SyncMaxTargets
		}
		if cfg.SyncTargetDelay > 0 {
			p.targetDelay = cfg.SyncTargetDelay
		}
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// RunCycle validates params, fetches one page, logs the call under marker
// (the report's own marker when empty) and upserts every record of the page.
// A cycle that started runs to completion even if ctx is cancelled.
// When some upserts fail the result is returned together with the error.
func (p *TaskProcessor) RunCycle(ctx context.Context, params pncp.Params, marker string) (*CycleResult, error) {
	rt := params.Report()
	if marker == "" {
		marker = rt.Marker()
	}
	mode := "on_demand"
	if strings.HasSuffix(marker, workerSuffix) {
		mode = "batch"
	}

	if err := pncp.Prepare(params); err != nil {
		metrics.SyncCycles.WithLabelValues(rt.String(), mode, "validation").Inc()
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	log := logging.Ctx(ctx).With().Str("report", rt.String()).Str("marker", marker).Logger()

	page, err := p.upstream.FetchPage(ctx, params)
	if err != nil {
		metrics.SyncCycles.WithLabelValues(rt.String(), mode, "upstream").Inc()
		return nil, err
	}

	if _, err := p.store.RecordCall(ctx, marker, params, page); err != nil {
		metrics.SyncCycles.WithLabelValues(rt.String(), mode, "storage").Inc()
		return nil, err
	}

	records, err := pncp.Normalize(rt, page.Data)
	if err != nil {
		metrics.SyncCycles.WithLabelValues(rt.String(), mode, "upstream").Inc()
		return nil, err
	}

	written, err := p.store.UpsertRecords(ctx, records)
	metrics.RecordsUpserted.WithLabelValues(rt.String()).Add(float64(written))

	result := &CycleResult{Page: page, Records: len(records), Written: written}

	if err != nil {
		metrics.UpsertFailures.WithLabelValues(rt.String()).Add(float64(len(records) - written))
		metrics.SyncCycles.WithLabelValues(rt.String(), mode, "partial").Inc()
		log.Warn().Err(err).Int("records", len(records)).Int("written", written).Msg("sync cycle partially failed")
		return result, err
	}

	metrics.SyncCycles.WithLabelValues(rt.String(), mode, "ok").Inc()
	log.Info().
		Int("records", len(records)).
		Int("written", written).
		Int("total_registros", page.TotalRegistros).
		Int("paginas_restantes", page.PaginasRestantes).
		Msg("sync cycle finished")

	return result, nil
}

// RunBatch syncs today's open opportunities for the first active modalities
// by id. A failing target is logged and the batch moves on; consecutive
// targets are separated by the configured delay. Cancelling ctx stops the
// batch between targets, never in the middle of one.
func (p *TaskProcessor) RunBatch(ctx context.Context, opts BatchOptions) (report BatchReport) {
	maxTargets := opts.MaxTargets
	if maxTargets <= 0 {
		maxTargets = p.maxTargets
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = p.targetDelay
	}

	report.RunID = logging.GenerateCorrelationID()
	ctx = logging.ContextWithCorrelationID(ctx, report.RunID)
	log := logging.Ctx(ctx)

	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		metrics.BatchDuration.Observe(report.Duration.Seconds())
		metrics.BatchLastRun.SetToCurrentTime()
	}()

	targets, err := p.store.ActiveModalidades(ctx, maxTargets)
	if err != nil {
		log.Error().Err(err).Msg("failed to load sync targets")
		report.Err = err
		return report
	}

	report.Targets = len(targets)
	log.Info().Int("targets", len(targets)).Msg("batch started")

	dataFinal := pncp.FormatDate(p.now())
	marker := pncp.ReportOportunidades.Marker() + workerSuffix

	for i, target := range targets {
		if i > 0 {
			if err := p.sleep(ctx, delay); err != nil {
				report.Stopped = true
				break
			}
		}
		if ctx.Err() != nil {
			report.Stopped = true
			break
		}

		params := &pncp.OportunidadeParams{
			DataFinal:                   dataFinal,
			CodigoModalidadeContratacao: target.ID,
			Pagination:                  pncp.Pagination{Pagina: pncp.DefaultPage, TamanhoPagina: pncp.DefaultPageSize},
		}

		result, err := p.RunCycle(ctx, params, marker)
		if result != nil {
			report.Written += result.Written
		}
		if err != nil {
			report.Failed++
			log.Warn().Err(err).Int("modalidade", target.ID).Str("nome", target.Nome).Msg("sync target failed")
			continue
		}
		report.Succeeded++
	}

	log.Info().
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int("written", report.Written).
		Bool("stopped", report.Stopped).
		Msg("batch finished")

	return report
}

func (p *TaskProcessor) HandleSyncBatchTask(ctx context.Context, t *asynq.Task) error {
	var payload SyncBatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	if payload.RequestID != "" {
		ctx = logging.ContextWithRequestID(ctx, payload.RequestID)
	}

	opts := BatchOptions{}
	if payload.MaxTargets != nil {
		opts.MaxTargets = *payload.MaxTargets
	}

	report := p.RunBatch(ctx, opts)
	if report.Err != nil {
		return report.Err
	}

	return nil
}

func (p *TaskProcessor) HandleSyncTargetTask(ctx context.Context, t *asynq.Task) error {
	var payload SyncTargetPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", asynq.SkipRetry)
	}

	params, err := payload.DecodeParams()
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	ctx = logging.ContextWithNewCorrelationID(ctx)
	if payload.RequestID != "" {
		ctx = logging.ContextWithRequestID(ctx, payload.RequestID)
	}

	if _, err := p.RunCycle(ctx, params, payload.Marker); err != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
