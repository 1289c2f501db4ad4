package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	appintegration "github.com/storesync/backend/internal/application/integration"
	"github.com/storesync/backend/internal/bootstrap"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/config"
	"github.com/storesync/backend/internal/infrastructure/logger"
	"github.com/storesync/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

func main() {
	var (
		syncType string
		full     bool
		ids      string
		timeout  time.Duration
	)
	flag.StringVar(&syncType, "type", dto.SyncTypeAll, "Sync type: all, departments, grids, groupings, suppliers, products, disabled, stock, promotions")
	flag.BoolVar(&full, "full", false, "Ignore the stored change window and resync everything")
	flag.StringVar(&ids, "ids", "", "Comma separated remote product ids (stock only)")
	flag.DurationVar(&timeout, "timeout", 0, "Abort the run after this long (0 = no limit)")
	flag.Parse()

	req := dto.SyncTriggerRequest{Type: syncType, Full: full, IDs: ids}
	types, err := req.SyncTypes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	productIDs, err := req.ProductIDs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(productIDs) > 0 && (len(types) != 1 || types[0] != integration.SyncTypeStock) {
		fmt.Fprintln(os.Stderr, "-ids is only supported with -type stock")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize sync engine", zap.Error(err))
	}
	log = app.Logger

	opts := appintegration.SyncOptions{Full: full, ProductIDs: productIDs}
	var results []*integration.SyncResult
	if len(types) == 0 {
		results, err = app.Sync.RunAll(ctx, opts)
	} else {
		var result *integration.SyncResult
		result, err = app.Sync.Run(ctx, types[0], opts)
		if result != nil {
			results = append(results, result)
		}
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		log.Info("Sync finished",
			zap.String("sync_type", r.Type.String()),
			zap.String("status", string(r.Status)),
			zap.Int("total", r.TotalCount),
			zap.Int("succeeded", r.SuccessCount),
			zap.Int("failed", r.FailedCount()),
			zap.Duration("duration", r.Duration),
		)
		for _, f := range r.FailedItems {
			log.Warn("Item failed",
				zap.String("sync_type", r.Type.String()),
				zap.String("item_id", f.ItemID),
				zap.String("code", f.ErrorCode),
				zap.Bool("soft", f.Soft),
				zap.String("error", f.ErrorMessage),
			)
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if cerr := app.Close(closeCtx); cerr != nil {
		log.Error("Error releasing resources", zap.Error(cerr))
	}

	if err != nil {
		log.Error("Sync failed", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}
