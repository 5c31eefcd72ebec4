package usecase

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

// ModelCache builds a segmentation model once and reuses its snapshot on
// later runs. A snapshot is trusted as long as the file exists; corrupt
// snapshots are fatal and never rebuilt automatically.
type ModelCache struct {
	builder     port.ModelBuilder
	store       port.SnapshotStore
	fingerprint port.Fingerprinter
	log         *zap.Logger

	// LoadPath is checked for an existing snapshot.
	LoadPath string
	// SavePath receives the snapshot after a fresh build.
	SavePath string
	// CheckFresh rebuilds when the snapshot fingerprint no longer matches
	// the resources.
	CheckFresh bool
}

// NewModelCache creates a model cache.
func NewModelCache(
	builder port.ModelBuilder,
	store port.SnapshotStore,
	fingerprint port.Fingerprinter,
	log *zap.Logger,
) *ModelCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModelCache{
		builder:     builder,
		store:       store,
		fingerprint: fingerprint,
		log:         log,
	}
}

// AcquireResult describes how the model was obtained.
type AcquireResult struct {
	Model    port.Model
	CacheHit bool
	Elapsed  time.Duration
}

// Acquire returns a model ready for segmentation. On a cache hit refs are
// ignored (unless CheckFresh is set). The analyzer is bound in both cases.
func (c *ModelCache) Acquire(refs domain.ResourceRefs) (*AcquireResult, error) {
	start := time.Now()

	hit, err := c.usable(refs)
	if err != nil {
		return nil, err
	}

	var model port.Model
	if hit {
		c.log.Info("cache hit", zap.String("snapshot", c.LoadPath))
		model, err = c.load()
	} else {
		c.log.Info("cache miss",
			zap.String("snapshot", c.LoadPath),
			zap.String("base", refs.Base),
			zap.String("enrichment", refs.Enrichment),
			zap.String("analyzer", refs.Analyzer),
		)
		model, err = c.build(refs)
	}
	if err != nil {
		return nil, err
	}

	if err := model.BindAnalyzer(model.AnalyzerPath()); err != nil {
		return nil, &domain.ConfigError{Field: "analyzer", Message: "cannot bind " + model.AnalyzerPath(), Err: err}
	}
	if model.AnalyzerPath() != "" {
		c.log.Info("analyzer bound", zap.String("path", model.AnalyzerPath()))
	}

	return &AcquireResult{Model: model, CacheHit: hit, Elapsed: time.Since(start)}, nil
}

// usable reports whether the snapshot at LoadPath should be loaded.
func (c *ModelCache) usable(refs domain.ResourceRefs) (bool, error) {
	if _, err := os.Stat(c.LoadPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, &domain.CacheError{Op: "stat", Path: c.LoadPath, Err: err}
	}
	if !c.CheckFresh || c.fingerprint == nil {
		return true, nil
	}

	meta, err := c.store.ReadMeta(c.LoadPath)
	if err != nil {
		return false, &domain.CacheError{Op: "load", Path: c.LoadPath, Err: err}
	}
	current, err := c.fingerprint.Fingerprint(refs)
	if err != nil {
		return false, &domain.ConfigError{Field: "resources", Message: "cannot fingerprint", Err: err}
	}
	if meta.Fingerprint != current {
		c.log.Info("stale snapshot, rebuilding",
			zap.String("snapshot", c.LoadPath),
			zap.String("stored", meta.Fingerprint),
			zap.String("current", current),
		)
		if c.SavePath != c.LoadPath {
			c.log.Warn("stale snapshot is not replaced, every run will rebuild",
				zap.String("snapshot", c.LoadPath),
				zap.String("save", c.SavePath),
			)
		}
		return false, nil
	}
	return true, nil
}

func (c *ModelCache) load() (port.Model, error) {
	snap, err := c.store.Load(c.LoadPath)
	if err != nil {
		return nil, &domain.CacheError{Op: "load", Path: c.LoadPath, Err: err}
	}
	model, err := c.builder.Restore(snap)
	if err != nil {
		return nil, &domain.CacheError{Op: "load", Path: c.LoadPath, Err: err}
	}
	return model, nil
}

func (c *ModelCache) build(refs domain.ResourceRefs) (port.Model, error) {
	if refs.Base == "" {
		return nil, &domain.ConfigError{Field: "base dictionary", Message: "path is required"}
	}
	model, err := c.builder.Build(refs)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	snap := model.Snapshot()
	if c.fingerprint != nil {
		if snap.Fingerprint, err = c.fingerprint.Fingerprint(refs); err != nil {
			return nil, &domain.ConfigError{Field: "resources", Message: "cannot fingerprint", Err: err}
		}
	}

	c.log.Info("saving snapshot", zap.String("path", c.SavePath))
	if err := c.store.Save(c.SavePath, snap); err != nil {
		return nil, &domain.CacheError{Op: "save", Path: c.SavePath, Err: err}
	}
	c.log.Info("snapshot saved", zap.String("path", c.SavePath))
	return model, nil
}
