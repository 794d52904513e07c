package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TMDbConfig configures the movie metadata API client.
type TMDbConfig struct {
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	ImageBaseURL      string        `yaml:"image_base_url" validate:"required,url"`
	Timeout           time.Duration `yaml:"timeout" validate:"min=0"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"min=0"`
	Burst             int           `yaml:"burst" validate:"min=0"`
}

// IMDbConfig configures the review scraper.
type IMDbConfig struct {
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	UserAgent  string        `yaml:"user_agent"`
	Timeout    time.Duration `yaml:"timeout" validate:"min=0"`
	MaxReviews int           `yaml:"max_reviews" validate:"min=1,max=50"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	Backend   string        `yaml:"backend" validate:"oneof=memory redis badger none"`
	TTL       time.Duration `yaml:"ttl" validate:"min=0"`
	Capacity  int           `yaml:"capacity" validate:"min=0"`
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	RedisDB   int           `yaml:"redis_db,omitempty" validate:"min=0"`
	BadgerDir string        `yaml:"badger_dir,omitempty"`
}

// LogConfig controls the global logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled off"`
	Format string `yaml:"format" validate:"omitempty,oneof=console json"`
}

// ServeConfig controls the JSON API server.
type ServeConfig struct {
	Addr            string   `yaml:"addr" validate:"required"`
	CORSOrigins     []string `yaml:"cors_origins,omitempty"`
	RateLimitPerMin int      `yaml:"rate_limit_per_minute" validate:"min=0"`
	Metrics         bool     `yaml:"metrics"`
}

// Config is the in-memory representation of ~/.cinerec/cinerec.yaml.
type Config struct {
	DataDir        string `yaml:"data_dir" validate:"required"`
	CatalogFile    string `yaml:"catalog_file" validate:"required"`
	ModelFile      string `yaml:"sentiment_model_file"`
	VectorizerFile string `yaml:"vectorizer_file"`
	IndexDir       string `yaml:"index_dir"`
	TopK           int    `yaml:"top_k" validate:"min=1,max=100"`
	Workers        int    `yaml:"workers,omitempty" validate:"min=0"`

	TMDb  TMDbConfig  `yaml:"tmdb"`
	IMDb  IMDbConfig  `yaml:"imdb"`
	Cache CacheConfig `yaml:"cache"`
	Log   LogConfig   `yaml:"log"`
	Serve ServeConfig `yaml:"serve"`
}

// ErrNoConfig is returned by Load when the config file does not exist.
var ErrNoConfig = errors.New("config file not found")

var validate = validator.New()

// CinerecDir returns the absolute path to ~/.cinerec/.
func CinerecDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cinerec"), nil
}

// ConfigPath returns the absolute path to ~/.cinerec/cinerec.yaml.
func ConfigPath() (string, error) {
	dir, err := CinerecDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cinerec.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the default Config written on first cinerec init.
func DefaultConfig() (*Config, error) {
	dir, err := CinerecDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		DataDir:        filepath.Join(dir, "data"),
		CatalogFile:    "main_data.csv",
		ModelFile:      "nlp_model.json",
		VectorizerFile: "tranform.json",
		IndexDir:       filepath.Join(dir, "index"),
		TopK:           10,
		TMDb: TMDbConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 20,
			Burst:             5,
		},
		IMDb: IMDbConfig{
			BaseURL:    "https://www.imdb.com",
			UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/85.0.4183.83 Safari/537.36",
			Timeout:    15 * time.Second,
			MaxReviews: 10,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			TTL:       6 * time.Hour,
			Capacity:  2048,
			BadgerDir: filepath.Join(dir, "cache"),
		},
		Log: LogConfig{Level: "warn", Format: "console"},
		Serve: ServeConfig{
			Addr:            "127.0.0.1:8080",
			RateLimitPerMin: 120,
			Metrics:         true,
		},
	}, nil
}

// Load reads and parses the config at path; an empty path means ~/.cinerec/cinerec.yaml.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfig, path)
		}
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := cfg.finish(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to DefaultConfig when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, ErrNoConfig) {
		return nil, err
	}
	cfg, err = DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies environment overrides, expands ~ and validates.
func (c *Config) finish() error {
	applyEnv(c)

	var err error
	for _, p := range []*string{&c.DataDir, &c.IndexDir, &c.Cache.BadgerDir} {
		if *p, err = ExpandPath(*p); err != nil {
			return err
		}
	}
	return validate.Struct(c)
}

func applyEnv(c *Config) {
	if v := os.Getenv("CINEREC_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("CINEREC_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CINEREC_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("CINEREC_CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CINEREC_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
}

// Save marshals cfg and writes it to path; an empty path means ~/.cinerec/cinerec.yaml.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}

// resolve joins name onto DataDir unless it is already absolute.
func (c *Config) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// CatalogPath is the absolute path of the movie catalog CSV.
func (c *Config) CatalogPath() string { return c.resolve(c.CatalogFile) }

// ModelPath is the absolute path of the sentiment model artifact, or "".
func (c *Config) ModelPath() string { return c.resolve(c.ModelFile) }

// VectorizerPath is the absolute path of the sentiment vectorizer artifact, or "".
func (c *Config) VectorizerPath() string { return c.resolve(c.VectorizerFile) }
