package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bcsync/internal/events"
	"bcsync/internal/logger"
	"bcsync/internal/models"
	"bcsync/internal/services/bc"
	"bcsync/internal/settings"

	"gorm.io/gorm"
)

type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// ItemSource is the slice of the Business Central client the engine needs.
type ItemSource interface {
	ListItems(ctx context.Context, companyID, filter string, pageSize int) ([]bc.ExternalItem, string, error)
	ListItemsPage(ctx context.Context, nextLink string) ([]bc.ExternalItem, string, error)
	GetItemPictures(ctx context.Context, companyID, itemID string) ([]bc.Picture, error)
	DownloadPicture(ctx context.Context, pic bc.Picture) ([]byte, string, error)
}

// Importer turns a downloaded binary into a durable media asset.
type Importer interface {
	Import(ctx context.Context, data []byte, contentType, filenameHint string) (string, error)
	Delete(ctx context.Context, assetID string) error
}

// EventPublisher is optional; a nil publisher disables event emission.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type ItemError struct {
	Number  string `json:"number"`
	Message string `json:"message"`
}

type SyncResult struct {
	Processed int         `json:"processed"`
	Created   int         `json:"created"`
	Updated   int         `json:"updated"`
	Skipped   int         `json:"skipped"`
	Errors    []ItemError `json:"errors"`
}

// Engine orchestrates full and incremental sync passes. One run processes
// items strictly sequentially, in the order the API returns them; the only
// global mutation is the watermark write at the very end.
type Engine struct {
	companyID   string
	pageSize    int
	source      ItemSource
	transformer *bc.Transformer
	upsert      *ProductUpsert
	diff        *DiffEngine
	media       Importer
	settings    *settings.Store
	publisher   EventPublisher
	db          *gorm.DB
	logger      *logger.Logger
	now         func() time.Time
}

func NewEngine(companyID string, pageSize int, source ItemSource, upsert *ProductUpsert, media Importer, store *settings.Store, publisher EventPublisher, db *gorm.DB, logger *logger.Logger) *Engine {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Engine{
		companyID:   companyID,
		pageSize:    pageSize,
		source:      source,
		transformer: bc.NewTransformer(),
		upsert:      upsert,
		diff:        NewDiffEngine(),
		media:       media,
		settings:    store,
		publisher:   publisher,
		db:          db,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes one sync pass. Per-item failures are recorded and skipped;
// run-level preconditions (config, auth, list fetch) abort the whole run.
// The watermark advances to the run start time even when items failed, so a
// crash mid-run can only cause reprocessing, never silent skips.
func (e *Engine) Run(ctx context.Context, mode Mode) (*SyncResult, error) {
	if e.companyID == "" {
		return nil, &ConfigError{Field: "company id"}
	}

	startedAt := e.now()

	filter := ""
	if mode == ModeIncremental {
		watermark, err := e.settings.Watermark()
		if err != nil {
			return nil, err
		}
		if !watermark.IsZero() {
			filter = fmt.Sprintf("lastModifiedDateTime gt %s", watermark.UTC().Format(time.RFC3339))
		}
	}

	items, err := e.collectItems(ctx, filter)
	if err != nil {
		return nil, err
	}

	run := models.SyncRun{Mode: string(mode), Status: models.SyncRunStatusRunning, StartedAt: startedAt}
	if err := e.db.Create(&run).Error; err != nil {
		e.logger.Error("Failed to record sync run: %v", err)
	}

	e.logger.Info("Syncing %d items (mode=%s)", len(items), mode)

	result := &SyncResult{}
	for i := range items {
		outcome := e.processItem(ctx, &items[i])
		result.Processed++
		switch {
		case outcome.err != nil:
			result.Errors = append(result.Errors, ItemError{
				Number:  items[i].Number,
				Message: outcome.err.Error(),
			})
		case outcome.skipped:
			result.Skipped++
		case outcome.created:
			result.Created++
		default:
			result.Updated++
		}
	}

	if err := e.settings.SetWatermark(startedAt); err != nil {
		e.logger.Error("Failed to advance watermark: %v", err)
	}

	e.finishRun(&run, result)

	return result, nil
}

// DryRun fetches the full item set and classifies every item without
// touching products, categories or pictures.
func (e *Engine) DryRun(ctx context.Context) ([]DiffRow, error) {
	if e.companyID == "" {
		return nil, &ConfigError{Field: "company id"}
	}

	items, err := e.collectItems(ctx, "")
	if err != nil {
		return nil, err
	}

	rows := make([]DiffRow, 0, len(items))
	for i := range items {
		mapped := e.transformer.Map(&items[i])

		var existing *models.Product
		if mapped.SKU != "" {
			var product models.Product
			err := e.db.First(&product, "sku = ?", mapped.SKU).Error
			if err == nil {
				existing = &product
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("failed to look up product %s: %w", mapped.SKU, err)
			}
		}

		rows = append(rows, e.diff.Classify(mapped, existing))
	}

	return rows, nil
}

// RebuildImages re-imports pictures for the product matching sku, or for
// every product carrying a SKU when sku is empty. The all-products form is
// unbounded in cost and meant for manual admin use only. Returns the number
// of products whose images were rebuilt.
func (e *Engine) RebuildImages(ctx context.Context, sku string) (int, error) {
	if e.companyID == "" {
		return 0, &ConfigError{Field: "company id"}
	}

	var skus []string
	if sku != "" {
		skus = []string{sku}
	} else {
		if err := e.db.Model(&models.Product{}).Where("sku <> ''").Pluck("sku", &skus).Error; err != nil {
			return 0, fmt.Errorf("failed to list products: %w", err)
		}
	}

	count := 0
	for _, s := range skus {
		rebuilt, err := e.rebuildImagesForSKU(ctx, s)
		if err != nil {
			if sku != "" {
				return count, err
			}
			e.logger.Error("Failed to rebuild images for %s: %v", s, err)
			continue
		}
		if rebuilt {
			count++
		}
	}

	return count, nil
}

type itemOutcome struct {
	created bool
	skipped bool
	err     error
}

func (e *Engine) processItem(ctx context.Context, item *bc.ExternalItem) itemOutcome {
	mapped := e.transformer.Map(item)

	outcome, err := e.upsert.Upsert(mapped)
	if err != nil {
		return itemOutcome{err: &ItemSyncError{Number: item.Number, Err: err}}
	}
	if outcome.Skipped {
		return itemOutcome{skipped: true}
	}

	if err := e.importImages(ctx, item, outcome.ProductID); err != nil {
		return itemOutcome{err: &ItemSyncError{Number: item.Number, Err: err}}
	}

	e.publish(ctx, outcome, mapped.SKU)

	return itemOutcome{created: outcome.Created}
}

func (e *Engine) importImages(ctx context.Context, item *bc.ExternalItem, productID string) error {
	pictures, err := e.source.GetItemPictures(ctx, e.companyID, item.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch pictures: %w", err)
	}

	assetIDs, err := e.importPictures(ctx, item.Number, pictures)
	if err != nil {
		return err
	}
	if len(assetIDs) == 0 {
		return nil
	}

	return e.upsert.SetImages(productID, assetIDs)
}

func (e *Engine) importPictures(ctx context.Context, number string, pictures []bc.Picture) ([]string, error) {
	var assetIDs []string
	for _, pic := range pictures {
		if pic.MediaReadLink == "" {
			continue
		}

		data, contentType, err := e.source.DownloadPicture(ctx, pic)
		if err != nil {
			return nil, fmt.Errorf("failed to download picture %s: %w", pic.ID, err)
		}

		assetID, err := e.media.Import(ctx, data, contentType, number)
		if err != nil {
			return nil, fmt.Errorf("failed to import picture %s: %w", pic.ID, err)
		}
		assetIDs = append(assetIDs, assetID)
	}
	return assetIDs, nil
}

func (e *Engine) rebuildImagesForSKU(ctx context.Context, sku string) (bool, error) {
	filter := fmt.Sprintf("number eq '%s'", escapeODataString(sku))
	items, err := e.collectItems(ctx, filter)
	if err != nil {
		return false, err
	}
	if len(items) == 0 {
		e.logger.Debug("No external item found for %s", sku)
		return false, nil
	}
	item := items[0]

	var product models.Product
	if err := e.db.First(&product, "sku = ?", sku).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load product %s: %w", sku, err)
	}

	previous := make([]string, 0, len(product.GalleryAssets)+1)
	if product.FeaturedAsset != nil {
		previous = append(previous, *product.FeaturedAsset)
	}
	previous = append(previous, product.GalleryAssets...)

	pictures, err := e.source.GetItemPictures(ctx, e.companyID, item.ID)
	if err != nil {
		return false, fmt.Errorf("failed to fetch pictures: %w", err)
	}

	assetIDs, err := e.importPictures(ctx, sku, pictures)
	if err != nil {
		return false, err
	}

	if err := e.upsert.SetImages(product.ID, assetIDs); err != nil {
		return false, err
	}

	// Drop prior assets that the fresh import did not reuse.
	reused := make(map[string]bool, len(assetIDs))
	for _, id := range assetIDs {
		reused[id] = true
	}
	for _, id := range previous {
		if reused[id] {
			continue
		}
		if err := e.media.Delete(ctx, id); err != nil {
			e.logger.Error("Failed to delete orphaned asset %s: %v", id, err)
		}
	}

	return true, nil
}

func (e *Engine) collectItems(ctx context.Context, filter string) ([]bc.ExternalItem, error) {
	// Result sets here are thousands of items at most, so the full set is
	// materialized before processing. Per-page processing would be the first
	// change needed at a larger scale.
	items, nextLink, err := e.source.ListItems(ctx, e.companyID, filter, e.pageSize)
	if err != nil {
		return nil, err
	}

	all := items
	for nextLink != "" {
		items, nextLink, err = e.source.ListItemsPage(ctx, nextLink)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}

	return all, nil
}

func (e *Engine) publish(ctx context.Context, outcome *UpsertOutcome, sku string) {
	if e.publisher == nil {
		return
	}

	eventType := events.TypeProductUpdated
	if outcome.Created {
		eventType = events.TypeProductCreated
	}
	err := e.publisher.Publish(ctx, events.Event{
		Type:      eventType,
		ProductID: outcome.ProductID,
		SKU:       sku,
		Timestamp: e.now(),
	})
	if err != nil {
		e.logger.Error("Failed to publish event for %s: %v", sku, err)
	}
}

func (e *Engine) finishRun(run *models.SyncRun, result *SyncResult) {
	if run.ID == "" {
		return
	}
	finished := e.now()
	run.Status = models.SyncRunStatusSuccess
	if len(result.Errors) > 0 {
		run.Status = models.SyncRunStatusPartial
	}
	run.Processed = result.Processed
	run.Created = result.Created
	run.Updated = result.Updated
	run.Skipped = result.Skipped
	run.ErrorCount = len(result.Errors)
	run.FinishedAt = &finished
	if err := e.db.Save(run).Error; err != nil {
		e.logger.Error("Failed to finish sync run record: %v", err)
	}
}

// escapeODataString doubles single quotes per the OData string literal rule.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
