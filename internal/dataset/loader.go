package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"insights-agent/internal/application/port/output"
	"insights-agent/internal/domain/entity"
)

var _ output.DatasetPort = (*CachedLoader)(nil)

// Loader fetches both boards and cleans them into a Dataset.
type Loader struct {
	boards       output.BoardPort
	workBoardID  int64
	dealsBoardID int64
	workMapping  Mapping
	dealMapping  Mapping
	logger       output.LoggerPort
}

type LoaderConfig struct {
	WorkBoardID  int64
	DealsBoardID int64
	WorkMapping  Mapping
	DealMapping  Mapping
}

func NewLoader(boards output.BoardPort, cfg LoaderConfig, logger output.LoggerPort) *Loader {
	if cfg.WorkMapping == nil {
		cfg.WorkMapping = DefaultWorkOrderMapping()
	}
	if cfg.DealMapping == nil {
		cfg.DealMapping = DefaultDealMapping()
	}
	return &Loader{
		boards:       boards,
		workBoardID:  cfg.WorkBoardID,
		dealsBoardID: cfg.DealsBoardID,
		workMapping:  cfg.WorkMapping,
		dealMapping:  cfg.DealMapping,
		logger:       logger,
	}
}

// Load fetches and cleans both boards. A failure on either board fails the
// whole load; serving half a dataset would skew every metric built on it.
func (l *Loader) Load(ctx context.Context) (*entity.Dataset, error) {
	workRows, err := l.boards.BoardRows(ctx, l.workBoardID)
	if err != nil {
		return nil, fmt.Errorf("fetch work orders board %d: %w", l.workBoardID, err)
	}
	dealRows, err := l.boards.BoardRows(ctx, l.dealsBoardID)
	if err != nil {
		return nil, fmt.Errorf("fetch deals board %d: %w", l.dealsBoardID, err)
	}

	ds := &entity.Dataset{FetchedAt: time.Now()}
	for _, row := range workRows {
		ds.WorkOrders = append(ds.WorkOrders, WorkOrderFromRow(row, l.workMapping))
	}
	for _, row := range dealRows {
		if isHeaderArtifact(row, l.dealMapping, FieldDealStatus) {
			continue
		}
		ds.Deals = append(ds.Deals, DealFromRow(row, l.dealMapping))
	}

	l.logger.Info("Dataset loaded",
		"workOrders", len(ds.WorkOrders),
		"deals", len(ds.Deals))
	return ds, nil
}

// CachedLoader serves datasets from a TTL cache and optionally refreshes
// them on a cron schedule in the background.
type CachedLoader struct {
	loader *Loader
	ttl    time.Duration
	logger output.LoggerPort

	mu      sync.RWMutex
	current *entity.Dataset

	cron *cron.Cron
}

func NewCachedLoader(loader *Loader, ttl time.Duration, logger output.LoggerPort) *CachedLoader {
	return &CachedLoader{
		loader: loader,
		ttl:    ttl,
		logger: logger,
	}
}

// Dataset returns the cached snapshot while it is fresh, fetching a new
// one otherwise. A refresh failure with a stale snapshot in hand serves
// the stale data rather than nothing.
func (c *CachedLoader) Dataset(ctx context.Context) (*entity.Dataset, error) {
	c.mu.RLock()
	current := c.current
	c.mu.RUnlock()

	if current != nil && time.Since(current.FetchedAt) < c.ttl {
		return current, nil
	}

	ds, err := c.Refresh(ctx)
	if err != nil {
		if current != nil {
			c.logger.Warn("Dataset refresh failed, serving stale snapshot",
				"error", err, "age", time.Since(current.FetchedAt).String())
			return current, nil
		}
		return nil, err
	}
	return ds, nil
}

// Refresh fetches a fresh dataset unconditionally.
func (c *CachedLoader) Refresh(ctx context.Context) (*entity.Dataset, error) {
	ds, err := c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.current = ds
	c.mu.Unlock()
	return ds, nil
}

// StartSchedule begins background refreshing with the given cron spec
// ("@every 5m" style specs work).
func (c *CachedLoader) StartSchedule(spec string) error {
	if spec == "" {
		return nil
	}

	runner := cron.New()
	_, err := runner.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := c.Refresh(ctx); err != nil {
			c.logger.Error("Scheduled dataset refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}

	runner.Start()
	c.cron = runner
	c.logger.Info("Dataset refresh scheduled", "spec", spec)
	return nil
}

// StopSchedule halts background refreshing and waits for a running
// refresh to finish.
func (c *CachedLoader) StopSchedule() {
	if c.cron != nil {
		<-c.cron.Stop().Done()
		c.cron = nil
	}
}
