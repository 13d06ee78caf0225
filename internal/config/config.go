package config

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/caarlos0/env/v10"
	"github.com/dgallion1/articleflow/internal/chunker"
	"github.com/dgallion1/articleflow/internal/reflow"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"ARTICLEFLOW_API_KEY"`

	// Pathstore publishing; disabled when the URL is empty.
	PathstoreURL    string `env:"PATHSTORE_URL"`
	PathstoreAPIKey string `env:"PATHSTORE_API_KEY"`

	// Worker pool
	WorkerCount  int `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize int `env:"MAX_QUEUE_SIZE" envDefault:"100"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Job state
	JobTTL time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// Slot layout
	SlotCount          int      `env:"SLOT_COUNT" envDefault:"5"`
	FirstSlotTarget    int      `env:"FIRST_SLOT_TARGET" envDefault:"300"`
	OtherSlotTarget    int      `env:"OTHER_SLOT_TARGET" envDefault:"500"`
	BoundaryWindow     int      `env:"BOUNDARY_WINDOW" envDefault:"100"`
	SentenceDelimiters []string `env:"SENTENCE_DELIMITERS" envSeparator:" " envDefault:". 。 ! ? ！ ？"`
	Abbreviations      []string `env:"ABBREVIATIONS" envSeparator:","`

	// Images and tables
	ImagePolicy         string `env:"IMAGE_POLICY" envDefault:"first"`
	AllowRelativeImages bool   `env:"ALLOW_RELATIVE_IMAGES" envDefault:"false"`
	KeepOtherImages     bool   `env:"KEEP_OTHER_IMAGES" envDefault:"false"`
	TableWrapperClass   string `env:"TABLE_WRAPPER_CLASS" envDefault:"table-responsive"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.SlotCount <= 0 {
		cfg.SlotCount = 5
	}
	if len(cfg.Abbreviations) == 0 {
		cfg.Abbreviations = chunker.DefaultAbbreviations()
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("ARTICLEFLOW_API_KEY is required")
	}
	if _, err := reflow.ParseImagePolicy(c.ImagePolicy); err != nil {
		return fmt.Errorf("IMAGE_POLICY: %w", err)
	}
	if c.PathstoreURL != "" && c.PathstoreAPIKey == "" {
		return fmt.Errorf("PATHSTORE_API_KEY is required when PATHSTORE_URL is set")
	}
	return nil
}

// PublishEnabled reports whether rendered articles go to pathstore.
func (c Config) PublishEnabled() bool {
	return c.PathstoreURL != ""
}

// Reflow builds the segmentation settings.
func (c Config) Reflow() reflow.Config {
	cfg := reflow.DefaultConfig()
	cfg.Chunk = chunker.Config{
		FirstTarget:   c.FirstSlotTarget,
		RestTarget:    c.OtherSlotTarget,
		Window:        c.BoundaryWindow,
		Delimiters:    delimiterRunes(c.SentenceDelimiters),
		Abbreviations: c.Abbreviations,
	}
	if p, err := reflow.ParseImagePolicy(c.ImagePolicy); err == nil {
		cfg.ImagePolicy = p
	}
	if c.AllowRelativeImages {
		cfg.AcceptImage = nil
	}
	cfg.KeepOtherImages = c.KeepOtherImages
	if c.TableWrapperClass != "" {
		cfg.TableWrapperClass = c.TableWrapperClass
	}
	return cfg
}

func delimiterRunes(ds []string) []rune {
	var out []rune
	for _, d := range ds {
		if r, size := utf8.DecodeRuneInString(d); size > 0 && r != utf8.RuneError {
			out = append(out, r)
		}
	}
	return out
}
