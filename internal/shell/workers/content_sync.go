// Package workers contains background workers for the site.
package workers

import (
	"context"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/the-snesler/samnesler.com/internal/core/content"
	"github.com/the-snesler/samnesler.com/internal/shell/store"
)

// ContentSyncConfig configures the content sync worker.
type ContentSyncConfig struct {
	// Interval is the time between content sync cycles.
	// Default: 60 seconds.
	Interval time.Duration

	// CycleTimeout is the timeout for a single sync cycle.
	// Default: 30 seconds.
	CycleTimeout time.Duration
}

// DefaultContentSyncConfig returns the default configuration.
func DefaultContentSyncConfig() ContentSyncConfig {
	return ContentSyncConfig{
		Interval:     60 * time.Second,
		CycleTimeout: 30 * time.Second,
	}
}

// ContentSync periodically re-reads markdown posts from the content
// directory, renders them, and reconciles the post store against what is
// on disk. Posts whose files disappeared are pruned.
type ContentSync struct {
	store   store.Store
	content fs.FS
	config  ContentSyncConfig
	logger  *slog.Logger

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewContentSync creates a new content sync worker reading posts from
// the given filesystem.
func NewContentSync(s store.Store, contentFS fs.FS, config ContentSyncConfig, logger *slog.Logger) *ContentSync {
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if config.CycleTimeout == 0 {
		config.CycleTimeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ContentSync{
		store:   s,
		content: contentFS,
		config:  config,
		logger:  logger.With("component", "content_sync"),
	}
}

// Start begins the sync background goroutine. A cycle runs immediately so
// the store is populated before the first tick.
func (c *ContentSync) Start() {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.wg.Add(1)
	go c.run()

	c.logger.Info("content sync started", "interval", c.config.Interval)
}

// Stop gracefully stops the worker. It waits for an in-progress cycle to
// complete.
func (c *ContentSync) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info("content sync stopped")
}

// run is the main loop that syncs content periodically.
func (c *ContentSync) run() {
	defer c.wg.Done()

	// Run immediately on start
	c.RunCycle(c.ctx)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.RunCycle(c.ctx)
		}
	}
}

// RunCycle executes a single sync pass. Parse failures for individual
// files are logged and skipped; the rest of the cycle proceeds.
func (c *ContentSync) RunCycle(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, c.config.CycleTimeout)
	defer cancel()

	posts, errs := content.LoadDir(c.content)
	for _, err := range errs {
		c.logger.Warn("skipping unparseable post", "error", err)
	}

	slugs := make([]string, 0, len(posts))
	err := c.store.WithTx(ctx, func(tx store.Store) error {
		for i := range posts {
			if err := tx.UpsertPost(ctx, &posts[i]); err != nil {
				return err
			}
			slugs = append(slugs, posts[i].Slug)
		}
		pruned, err := tx.DeletePostsNotIn(ctx, slugs)
		if err != nil {
			return err
		}
		if pruned > 0 {
			c.logger.Info("pruned removed posts", "count", pruned)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("content sync cycle failed", "error", err)
		return
	}

	c.logger.Debug("completed content sync cycle", "post_count", len(posts))
}
