// Package config loads the YAML configuration and turns it into the
// components the engine is built from.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cognicore/softmention/pkg/softmention/disambiguate"
	"github.com/cognicore/softmention/pkg/softmention/ingest"
	"github.com/cognicore/softmention/pkg/softmention/label"
	"github.com/cognicore/softmention/pkg/softmention/lexicon"
	"github.com/cognicore/softmention/pkg/softmention/store"
	"github.com/cognicore/softmention/pkg/softmention/store/memstore"
	"github.com/cognicore/softmention/pkg/softmention/store/sqlite"
)

// Loader builds components from a configuration.
type Loader struct {
	Config Config
	Logger *slog.Logger
}

// Components holds everything built from a configuration. Close releases
// the labeler model and the store.
type Components struct {
	Tokenizer     *ingest.Tokenizer
	Rarity        *lexicon.Table
	Knowledge     *disambiguate.KnowledgeBase
	Disambiguator disambiguate.Disambiguator
	Labeler       label.Labeler
	Store         store.Store

	closers []func() error
}

// Load opens the store and reads every configured file.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := l.Config
	comp := &Components{Tokenizer: ingest.NewTokenizer()}

	// Store
	switch cfg.Store.Driver {
	case StoreSQLite:
		st, err := sqlite.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		comp.Store = st
	default:
		comp.Store = memstore.New()
	}
	comp.closers = append(comp.closers, comp.Store.Close)

	fail := func(err error) (*Components, error) {
		comp.Close()
		return nil, err
	}

	// Rarity table
	switch {
	case cfg.Lexicon.RarityPath != "":
		tab, err := lexicon.LoadFromYAML(cfg.Lexicon.RarityPath)
		if err != nil {
			return fail(fmt.Errorf("load rarity table: %w", err))
		}
		comp.Rarity = tab
	case cfg.Lexicon.FromStore:
		stats, err := comp.Store.NameStats(ctx)
		if err != nil {
			return fail(fmt.Errorf("load name statistics: %w", err))
		}
		comp.Rarity = lexicon.FromCounts(stats.Docs, stats.DF)
	default:
		comp.Rarity = lexicon.New()
	}
	logger.Debug("rarity table ready", "terms", comp.Rarity.Len())

	// Knowledge base
	if cfg.Knowledge.Path != "" {
		kb, err := disambiguate.LoadFromYAML(cfg.Knowledge.Path)
		if err != nil {
			return fail(fmt.Errorf("load knowledge base: %w", err))
		}
		comp.Knowledge = kb
		comp.Disambiguator = kb
	} else {
		comp.Knowledge = disambiguate.NewKnowledgeBase()
		comp.Disambiguator = disambiguate.Nop{}
	}

	// Labeler
	switch cfg.Labeler.Kind {
	case LabelerHugot:
		modelPath, err := label.PrepareModel(cfg.Labeler.Model, cfg.Labeler.ModelDir)
		if err != nil {
			return fail(fmt.Errorf("prepare model: %w", err))
		}
		h, err := label.NewHugotLabeler(modelPath)
		if err != nil {
			return fail(err)
		}
		comp.Labeler = h
		comp.closers = append(comp.closers, h.Close)
		logger.Info("loaded labeling model", "model", cfg.Labeler.Model, "path", modelPath)
	default:
		comp.Labeler = label.NewGazetteer(comp.Tokenizer, knownNames(comp.Knowledge))
	}

	return comp, nil
}

// Close releases resources in reverse order of acquisition.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func knownNames(kb *disambiguate.KnowledgeBase) []string {
	var names []string
	for _, e := range kb.Entries() {
		names = append(names, e.Name)
		names = append(names, e.Aliases...)
	}
	return names
}
