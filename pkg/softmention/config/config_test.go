package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/softmention/pkg/softmention/disambiguate"
	"github.com/cognicore/softmention/pkg/softmention/internalerr"
	"github.com/cognicore/softmention/pkg/softmention/label"
	"github.com/cognicore/softmention/pkg/softmention/mention"
	"github.com/cognicore/softmention/pkg/softmention/store"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("Overrides defaults", func(t *testing.T) {
		path := write(t, dir, "cfg.yaml", `
disambiguate: true
lexicon:
  rarity_path: rarity.yaml
store:
  driver: sqlite
  path: mentions.db
log:
  level: debug
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.True(t, cfg.Disambiguate)
		assert.Equal(t, "rarity.yaml", cfg.Lexicon.RarityPath)
		assert.Equal(t, StoreSQLite, cfg.Store.Driver)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, LabelerGazetteer, cfg.Labeler.Kind, "defaults survive")
		assert.Equal(t, ":8060", cfg.HTTP.Addr)
	})

	t.Run("Invalid YAML", func(t *testing.T) {
		_, err := Load(write(t, dir, "bad.yaml", "store: [unclosed"))
		assert.ErrorIs(t, err, internalerr.ErrInvalidConfig)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"hugot without model", func(c *Config) { c.Labeler.Kind = LabelerHugot }},
		{"unknown labeler", func(c *Config) { c.Labeler.Kind = "crf" }},
		{"sqlite without path", func(c *Config) { c.Store.Driver = StoreSQLite }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }},
		{"both rarity sources", func(c *Config) { c.Lexicon.RarityPath = "r.yaml"; c.Lexicon.FromStore = true }},
		{"unknown log level", func(c *Config) { c.Log.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), internalerr.ErrInvalidConfig)
		})
	}
}

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{Config: Default()}
	comp, err := loader.Load(context.Background())
	require.NoError(t, err)
	defer comp.Close()

	assert.NotNil(t, comp.Tokenizer)
	assert.Equal(t, 0, comp.Rarity.Len())
	assert.IsType(t, disambiguate.Nop{}, comp.Disambiguator)
	assert.IsType(t, &label.Gazetteer{}, comp.Labeler)
	assert.NotNil(t, comp.Store)
}

func TestLoaderValidFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Lexicon.RarityPath = write(t, dir, "rarity.yaml", "terms:\n  - term: SPSS\n    weight: 3.5\n")
	cfg.Knowledge.Path = write(t, dir, "kb.yaml", "software:\n  - id: Q216296\n    name: SPSS\n    aliases: [SPSS Statistics]\n")
	cfg.Store = Store{Driver: StoreSQLite, Path: filepath.Join(dir, "m.db")}

	comp, err := (&Loader{Config: cfg}).Load(context.Background())
	require.NoError(t, err)
	defer comp.Close()

	assert.Equal(t, 3.5, comp.Rarity.Weight("spss"))
	assert.Equal(t, 1, comp.Knowledge.Len())
	assert.Same(t, comp.Knowledge, comp.Disambiguator)

	g, ok := comp.Labeler.(*label.Gazetteer)
	require.True(t, ok)
	assert.Equal(t, 2, g.Len(), "names and aliases feed the gazetteer")
}

func TestLoaderRarityFromStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "m.db")
	ctx := context.Background()

	seed := Default()
	seed.Store = Store{Driver: StoreSQLite, Path: dbPath}
	comp, err := (&Loader{Config: seed}).Load(ctx)
	require.NoError(t, err)
	for i, names := range [][]string{{"SPSS", "R"}, {"R"}} {
		var entities []mention.Entity
		for j, n := range names {
			entities = append(entities, mention.NewEntity(mention.Component{
				Kind: mention.KindSoftware, Raw: n, Span: mention.Span{Start: j * 10, End: j*10 + len(n)},
			}))
		}
		_, err := comp.Store.UpsertDoc(ctx, store.NewDoc(string(rune('a'+i)), "", "", entities))
		require.NoError(t, err)
	}
	require.NoError(t, comp.Close())

	cfg := seed
	cfg.Lexicon.FromStore = true
	comp, err = (&Loader{Config: cfg}).Load(ctx)
	require.NoError(t, err)
	defer comp.Close()

	assert.InDelta(t, 0.6931, comp.Rarity.Weight("SPSS"), 1e-3)
	assert.Equal(t, 0.0, comp.Rarity.Weight("R"))
	assert.True(t, comp.Rarity.Has("R"))
}

func TestLoaderMissingFiles(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"rarity":    func(c *Config) { c.Lexicon.RarityPath = "/nonexistent/rarity.yaml" },
		"knowledge": func(c *Config) { c.Knowledge.Path = "/nonexistent/kb.yaml" },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			_, err := (&Loader{Config: cfg}).Load(context.Background())
			assert.Error(t, err)
		})
	}
}
