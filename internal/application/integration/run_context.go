package integration

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// RunContext carries the settings and lookup tables of a single sync run.
// It is built once when the run starts and read-only afterwards.
type RunContext struct {
	// RunID correlates the log lines of one run
	RunID uuid.UUID
	// Settings is the business configuration
	Settings Settings
	// GiftCardCode is the product code of the gift card placeholder
	GiftCardCode string
	// Logger is scoped to the run
	Logger *zap.Logger

	placeholders map[string]struct{}
	suppliers    map[int]uuid.UUID
}

// IsPlaceholder reports whether sku is a shipping or gift card placeholder.
func (r *RunContext) IsPlaceholder(sku string) bool {
	_, ok := r.placeholders[strings.ToUpper(strings.TrimSpace(sku))]
	return ok
}

// SupplierTerm returns the supplier term mirrored for a remote supplier id.
func (r *RunContext) SupplierTerm(supplierID int) (uuid.UUID, bool) {
	id, ok := r.suppliers[supplierID]
	return id, ok
}

// RunContextBuilder loads the per-run tables from the remote system and the
// term store.
type RunContextBuilder struct {
	remote   integration.RemoteCatalog
	terms    integration.TermStore
	settings Settings
	logger   *zap.Logger
}

// NewRunContextBuilder creates a new RunContextBuilder
func NewRunContextBuilder(remote integration.RemoteCatalog, terms integration.TermStore, settings Settings, logger *zap.Logger) *RunContextBuilder {
	return &RunContextBuilder{
		remote:   remote,
		terms:    terms,
		settings: settings,
		logger:   logger,
	}
}

// Build fetches placeholder codes and the supplier table once for a run.
func (b *RunContextBuilder) Build(ctx context.Context, syncType integration.SyncType) (*RunContext, error) {
	run := &RunContext{
		RunID:        uuid.New(),
		Settings:     b.settings,
		placeholders: make(map[string]struct{}),
		suppliers:    make(map[int]uuid.UUID),
	}
	run.Logger = b.logger.With(
		zap.String("sync_type", syncType.String()),
		zap.String("run_id", run.RunID.String()),
	)

	shipping := b.settings.ShippingProductCodes
	if len(shipping) == 0 {
		raw, err := b.remote.GetSetting(ctx, integration.SettingShippingProductCodes)
		if err != nil {
			return nil, fmt.Errorf("load shipping product codes: %w", err)
		}
		shipping = splitCodes(raw)
	}
	for _, code := range shipping {
		run.placeholders[strings.ToUpper(code)] = struct{}{}
	}

	run.GiftCardCode = b.settings.GiftCardProductCode
	if run.GiftCardCode == "" {
		raw, err := b.remote.GetSetting(ctx, integration.SettingGiftCardProductCode)
		if err != nil {
			return nil, fmt.Errorf("load gift card product code: %w", err)
		}
		run.GiftCardCode = strings.TrimSpace(raw)
	}
	if run.GiftCardCode != "" {
		run.placeholders[strings.ToUpper(run.GiftCardCode)] = struct{}{}
	}

	suppliers, err := b.terms.ListTerms(ctx, integration.AttributeTaxonomy(integration.SupplierAttributeSlug))
	if err != nil {
		return nil, fmt.Errorf("load supplier table: %w", err)
	}
	for _, term := range suppliers {
		id, err := strconv.Atoi(term.Meta[integration.MetaSupplierID])
		if err != nil {
			continue
		}
		run.suppliers[id] = term.ID
	}

	return run, nil
}

func splitCodes(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	codes := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			codes = append(codes, f)
		}
	}
	return codes
}
