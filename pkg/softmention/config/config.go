package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/softmention/pkg/softmention/internalerr"
)

// Labeler kinds.
const (
	LabelerGazetteer = "gazetteer"
	LabelerHugot     = "hugot"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config is the YAML configuration of the service and the CLI.
type Config struct {
	Disambiguate bool      `yaml:"disambiguate"`
	Lexicon      Lexicon   `yaml:"lexicon"`
	Knowledge    Knowledge `yaml:"knowledge"`
	Labeler      Labeler   `yaml:"labeler"`
	Store        Store     `yaml:"store"`
	Log          Log       `yaml:"log"`
	HTTP         HTTP      `yaml:"http"`
}

// Lexicon locates the term rarity table. With FromStore set, weights are
// derived from the document frequencies in the store instead.
type Lexicon struct {
	RarityPath string `yaml:"rarity_path"`
	FromStore  bool   `yaml:"from_store"`
}

// Knowledge locates the knowledge base used for disambiguation and by the
// gazetteer labeler.
type Knowledge struct {
	Path string `yaml:"path"`
}

// Labeler selects the sequence labeler.
type Labeler struct {
	Kind     string `yaml:"kind"`
	Model    string `yaml:"model"`
	ModelDir string `yaml:"model_dir"`
}

// Store selects persistence.
type Store struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// Log sets the minimum log level.
type Log struct {
	Level string `yaml:"level"`
}

// HTTP configures the service listener.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Labeler: Labeler{Kind: LabelerGazetteer, ModelDir: "./models"},
		Store:   Store{Driver: StoreMemory},
		Log:     Log{Level: "info"},
		HTTP:    HTTP{Addr: ":8060"},
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every inconsistent setting.
func (c Config) Validate() error {
	var errs []error

	switch c.Labeler.Kind {
	case LabelerGazetteer:
	case LabelerHugot:
		if c.Labeler.Model == "" {
			errs = append(errs, errors.New("labeler.model is required for the hugot labeler"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown labeler.kind %q", c.Labeler.Kind))
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Lexicon.FromStore && c.Lexicon.RarityPath != "" {
		errs = append(errs, errors.New("lexicon.rarity_path and lexicon.from_store are exclusive"))
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log.level %q", c.Log.Level))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", internalerr.ErrInvalidConfig, err)
	}
	return nil
}
