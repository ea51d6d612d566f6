package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"surfacefx/effects"
	"surfacefx/internal/telemetry"
	"surfacefx/logging"
	"surfacefx/surface/catalog"
)

const (
	envCatalog   = "SURFACEFX_CATALOG"
	envParticles = "SURFACEFX_PARTICLES"
	envConfig    = "SURFACEFX_CONFIG"
	envAddr      = "SURFACEFX_ADDR"
	envTickRate  = "SURFACEFX_TICK_RATE"
)

const defaultTickRate = 50

// Config selects the inputs of Run. Empty fields fall back to the
// environment and then to the bundled files under config/.
type Config struct {
	Logger telemetry.Logger

	CatalogPaths  []string
	ParticlePaths []string
	ConfigPath    string

	// Addr serves diagnostics when non-empty.
	Addr     string
	TickRate int
	// Ticks stops the run after that many simulation ticks; zero runs until
	// the context is cancelled.
	Ticks uint64
}

// FileConfig is the YAML document read from ConfigPath.
type FileConfig struct {
	Logging logging.Config `yaml:"logging"`
	Effects effects.Config `yaml:"effects"`
}

// DefaultFileConfig returns the configuration used when no file exists.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		Logging: logging.DefaultConfig(),
		Effects: effects.DefaultConfig(),
	}
}

// LoadFileConfig decodes path over the defaults. A missing file yields the
// defaults.
func LoadFileConfig(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("app: failed loading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("app: failed parsing %s: %w", path, err)
	}
	if err := cfg.Effects.Validate(); err != nil {
		return cfg, fmt.Errorf("app: %s: %w", path, err)
	}
	return cfg, nil
}

// withEnvironment fills the empty fields of cfg from the environment and the
// bundled defaults.
func withEnvironment(cfg Config, logger telemetry.Logger) Config {
	if len(cfg.CatalogPaths) == 0 {
		cfg.CatalogPaths = splitPaths(os.Getenv(envCatalog))
	}
	if len(cfg.CatalogPaths) == 0 {
		cfg.CatalogPaths = catalog.DefaultPaths()
	}
	if len(cfg.ParticlePaths) == 0 {
		cfg.ParticlePaths = splitPaths(os.Getenv(envParticles))
	}
	if len(cfg.ParticlePaths) == 0 {
		cfg.ParticlePaths = []string{filepath.Join("config", "surfaces", "particles.yaml")}
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = os.Getenv(envConfig)
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = filepath.Join("config", "effects.yaml")
	}
	if cfg.Addr == "" {
		cfg.Addr = os.Getenv(envAddr)
	}
	if cfg.TickRate <= 0 {
		if raw := os.Getenv(envTickRate); raw != "" {
			value, err := strconv.Atoi(raw)
			switch {
			case err != nil:
				logger.Printf("invalid %s=%q: %v", envTickRate, raw, err)
			case value <= 0:
				logger.Printf("invalid %s=%q: must be positive", envTickRate, raw)
			default:
				cfg.TickRate = value
			}
		}
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	return cfg
}

func splitPaths(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var paths []string
	for _, part := range strings.Split(raw, string(os.PathListSeparator)) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paths = append(paths, trimmed)
		}
	}
	return paths
}
