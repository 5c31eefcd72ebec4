// Package lexicon builds segmentation models from derivational and
// inflectional dictionaries.
package lexicon

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"morphsplit/internal/adapter/fs"
	"morphsplit/internal/domain"
	"morphsplit/internal/port"
)

// Builder creates lexicon models.
type Builder struct {
	opener *fs.Opener
	log    *zap.Logger
}

// NewBuilder creates a Builder reading resources through opener.
func NewBuilder(opener *fs.Opener, log *zap.Logger) *Builder {
	if opener == nil {
		opener = fs.NewOpener(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{opener: opener, log: log}
}

// Build reads the base dictionary and, when configured, the enrichment
// dictionary. The analyzer path is only recorded; it is bound separately.
func (b *Builder) Build(refs domain.ResourceRefs) (port.Model, error) {
	if refs.Base == "" {
		return nil, &domain.ConfigError{Field: "base dictionary", Message: "path is required"}
	}

	start := time.Now()
	lemmas, err := b.loadLemmas(refs.Base)
	if err != nil {
		return nil, err
	}
	b.log.Info("base dictionary loaded", zap.String("path", refs.Base), zap.Int("lemmas", len(lemmas)))

	forms := make(map[string][]int)
	if refs.Enrichment != "" {
		if err := b.loadForms(refs.Enrichment, lemmas, forms); err != nil {
			return nil, err
		}
		b.log.Info("enrichment dictionary loaded", zap.String("path", refs.Enrichment), zap.Int("forms", len(forms)))
	}

	m := &Model{
		lemmas:       lemmas,
		forms:        forms,
		analyzerPath: refs.Analyzer,
		builtAt:      time.Now().UTC(),
		opener:       b.opener,
	}
	b.log.Info("lexicon built", zap.Duration("elapsed", time.Since(start)))
	return m, nil
}

// Restore recreates a model from a snapshot. The analyzer is left unbound.
func (b *Builder) Restore(snap domain.Snapshot) (port.Model, error) {
	if snap.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("snapshot schema version %d, expected %d", snap.SchemaVersion, SchemaVersion)
	}
	lemmas, forms := snap.Lemmas, snap.Forms
	if lemmas == nil {
		lemmas = make(map[string][]int)
	}
	if forms == nil {
		forms = make(map[string][]int)
	}
	return &Model{
		lemmas:       lemmas,
		forms:        forms,
		analyzerPath: snap.AnalyzerPath,
		fingerprint:  snap.Fingerprint,
		builtAt:      snap.BuiltAt,
		opener:       b.opener,
	}, nil
}

func (b *Builder) open(field, path string) (*fs.Resource, error) {
	res, err := b.opener.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.ConfigError{Field: field, Message: fmt.Sprintf("%s does not exist", path)}
		}
		return nil, &domain.ConfigError{Field: field, Message: "cannot open " + path, Err: err}
	}
	return res, nil
}

// loadLemmas reads the derivation dictionary and computes the boundaries of
// every lemma from its chain of ancestors.
func (b *Builder) loadLemmas(path string) (map[string][]int, error) {
	res, err := b.open("base dictionary", path)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	entries, err := readDerinet(res, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read base dictionary: %w", err)
	}

	memo := make(map[int][]int, len(entries))
	visiting := make(map[int]bool)
	var resolve func(id int) []int
	resolve = func(id int) []int {
		if cached, ok := memo[id]; ok {
			return cached
		}
		e := entries[id]
		var bounds []int
		if parent, ok := entries[e.parentID]; ok && !visiting[id] {
			visiting[id] = true
			bounds = project(e.lemma, parent.lemma, resolve(e.parentID))
			delete(visiting, id)
		}
		memo[id] = bounds
		return bounds
	}

	lemmas := make(map[string][]int, len(entries))
	orphans := 0
	for id, e := range entries {
		if e.parentID >= 0 {
			if _, ok := entries[e.parentID]; !ok {
				orphans++
			}
		}
		bounds := resolve(id)
		// Homonyms share a key; keep the richer segmentation.
		if prev, ok := lemmas[e.lemma]; !ok || len(bounds) > len(prev) {
			lemmas[e.lemma] = bounds
		}
	}
	if orphans > 0 {
		b.log.Warn("entries reference unknown parents", zap.Int("count", orphans))
	}
	return lemmas, nil
}

// loadForms reads the inflection dictionary and projects lemma boundaries
// onto each form.
func (b *Builder) loadForms(path string, lemmas, forms map[string][]int) error {
	res, err := b.open("enrichment dictionary", path)
	if err != nil {
		return err
	}
	defer res.Close()

	err = readMorfflex(res, path, func(inf inflection) {
		if _, seen := forms[inf.form]; seen {
			return
		}
		bounds := project(inf.form, inf.lemma, lemmas[inf.lemma])
		if len(bounds) > 0 {
			forms[inf.form] = bounds
		}
	})
	if err != nil {
		return fmt.Errorf("failed to read enrichment dictionary: %w", err)
	}
	return nil
}
