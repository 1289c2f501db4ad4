package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ErrSyncRunning is returned when a sync is started while another is running
var ErrSyncRunning = errors.New("integration: a sync is already running")

// SyncRecorder receives the outcome of every sync run
type SyncRecorder interface {
	RecordSync(ctx context.Context, syncType integration.SyncType, result *integration.SyncResult, err error)
}

// SyncOptions controls a single sync run
type SyncOptions struct {
	// Full ignores the stored window and resyncs everything
	Full bool
	// ProductIDs restricts a stock sync to the given remote product ids
	ProductIDs []int
}

// SyncService is the entry point of every sync type. Runs never overlap.
type SyncService struct {
	remote     integration.RemoteCatalog
	runs       *RunContextBuilder
	window     *WindowTracker
	taxonomy   *TaxonomyService
	products   *ProductService
	stock      *StockService
	promotions *PromotionService
	recorder   SyncRecorder
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	running bool
}

// SyncServiceDeps groups the collaborators of a SyncService
type SyncServiceDeps struct {
	Remote     integration.RemoteCatalog
	Runs       *RunContextBuilder
	Window     *WindowTracker
	Taxonomy   *TaxonomyService
	Products   *ProductService
	Stock      *StockService
	Promotions *PromotionService
	Recorder   SyncRecorder
	Logger     *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(deps SyncServiceDeps) *SyncService {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		remote:     deps.Remote,
		runs:       deps.Runs,
		window:     deps.Window,
		taxonomy:   deps.Taxonomy,
		products:   deps.Products,
		stock:      deps.Stock,
		promotions: deps.Promotions,
		recorder:   deps.Recorder,
		logger:     log,
		now:        time.Now,
	}
}

// Running reports whether a sync is in progress.
func (s *SyncService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *SyncService) acquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *SyncService) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Run executes one sync type to completion.
func (s *SyncService) Run(ctx context.Context, syncType integration.SyncType, opts SyncOptions) (*integration.SyncResult, error) {
	if !syncType.IsValid() {
		return nil, fmt.Errorf("unknown sync type %q", syncType)
	}
	if !s.acquire() {
		return nil, ErrSyncRunning
	}
	defer s.release()

	return s.run(ctx, syncType, opts)
}

// RunAll executes every sync type in dependency order. A failed stage does
// not stop later stages; the stage errors are joined.
func (s *SyncService) RunAll(ctx context.Context, opts SyncOptions) ([]*integration.SyncResult, error) {
	if !s.acquire() {
		return nil, ErrSyncRunning
	}
	defer s.release()

	results := make([]*integration.SyncResult, 0, len(integration.AllSyncTypes))
	var errs []error
	for _, syncType := range integration.AllSyncTypes {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		result, err := s.run(ctx, syncType, opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", syncType, err))
			continue
		}
		results = append(results, result)
	}
	return results, errors.Join(errs...)
}

// Status returns the stored state of every sync type that has run.
func (s *SyncService) Status(ctx context.Context) ([]*integration.SyncState, error) {
	return s.window.States(ctx)
}

func (s *SyncService) run(ctx context.Context, syncType integration.SyncType, opts SyncOptions) (result *integration.SyncResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", syncType.String(),
		telemetry.WithAttribute("sync.full", opts.Full),
	)
	defer span.End()

	started := s.now()
	defer func() {
		if s.recorder != nil {
			s.recorder.RecordSync(ctx, syncType, result, err)
		}
		if err != nil {
			telemetry.RecordError(span, err)
			if ferr := s.window.Fail(context.WithoutCancel(ctx), syncType, err); ferr != nil {
				s.logger.Warn("failed to record sync failure", zap.String("sync_type", syncType.String()), zap.Error(ferr))
			}
			return
		}
		telemetry.SetAttributes(span,
			"sync.total", result.TotalCount,
			"sync.failed", result.FailedCount(),
			"sync.status", string(result.Status),
		)
		telemetry.SetOK(span)
	}()

	run, err := s.runs.Build(ctx, syncType)
	if err != nil {
		return nil, err
	}
	ctx = logger.WithSyncRun(ctx, run.Logger, syncType.String(), run.RunID.String())
	run.Logger.Info("sync started", zap.Bool("full", opts.Full))

	windowed := true
	switch syncType {
	case integration.SyncTypeProducts:
		result, err = s.syncProducts(ctx, run, opts)
	case integration.SyncTypeStock:
		windowed = len(opts.ProductIDs) == 0
		result, err = s.syncStock(ctx, run, opts)
	case integration.SyncTypeGrids:
		result, err = s.taxonomy.SyncGrids(ctx, run)
	case integration.SyncTypeGroupings:
		result, err = s.taxonomy.SyncGroupings(ctx, run)
	case integration.SyncTypeSuppliers:
		result, err = s.taxonomy.SyncSuppliers(ctx, run)
	case integration.SyncTypeDepartments:
		result, err = s.taxonomy.SyncDepartments(ctx, run)
	case integration.SyncTypePromotions:
		result, err = s.promotions.SyncPromotions(ctx, run)
	case integration.SyncTypeDisabled:
		result, err = s.syncDisabled(ctx, run)
	}
	if err == nil && ctx.Err() != nil {
		// a batch cut short by cancellation must not move the window
		err = ctx.Err()
	}
	if err != nil {
		run.Logger.Error("sync failed", zap.Error(err))
		return nil, err
	}

	if windowed {
		if cerr := s.window.Complete(ctx, syncType, started, result.TotalCount, s.now().Sub(started)); cerr != nil {
			return nil, fmt.Errorf("save sync state: %w", cerr)
		}
	}

	run.Logger.Info("sync finished",
		zap.String("status", string(result.Status)),
		zap.Int("total", result.TotalCount),
		zap.Int("failed", result.FailedCount()),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *SyncService) syncProducts(ctx context.Context, run *RunContext, opts SyncOptions) (*integration.SyncResult, error) {
	since, err := s.window.GetWindow(ctx, integration.SyncTypeProducts, opts.Full)
	if err != nil {
		return nil, err
	}
	items, err := s.remote.GetProducts(ctx, since)
	if err != nil {
		return nil, err
	}
	run.Logger.Info("products fetched", zap.Int("count", len(items)), zap.Time("since", since))
	return s.products.SyncProducts(ctx, run, items), nil
}

func (s *SyncService) syncStock(ctx context.Context, run *RunContext, opts SyncOptions) (*integration.SyncResult, error) {
	if len(opts.ProductIDs) > 0 {
		return s.stock.SyncStock(ctx, run, StockScope{ProductIDs: opts.ProductIDs})
	}
	since, err := s.window.GetWindow(ctx, integration.SyncTypeStock, opts.Full)
	if err != nil {
		return nil, err
	}
	return s.stock.SyncStock(ctx, run, StockScope{Since: since})
}

func (s *SyncService) syncDisabled(ctx context.Context, run *RunContext) (*integration.SyncResult, error) {
	ids, err := s.remote.GetDisabledProducts(ctx)
	if err != nil {
		return nil, err
	}
	return s.products.RetireDisabled(ctx, run, ids)
}
