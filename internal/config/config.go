package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"ssp-admin/internal/ssp"
)

// rc file keys; the same names are honoured as environment overrides.
const (
	KeyBaseURL         = "SSP_BASE_URL"
	KeyToken           = "SSP_TOKEN"
	KeyPreviewEndpoint = "SSP_PREVIEW_ENDPOINT"
	KeyTimeoutSeconds  = "SSP_TIMEOUT_SECONDS"
	KeyPageSize        = "SSP_PAGE_SIZE"
)

const rcName = ".ssprc"

type Config struct {
	BaseURL         string        `yaml:"base_url"`
	Token           string        `yaml:"token"`
	PreviewEndpoint string        `yaml:"preview_endpoint"`
	Timeout         time.Duration `yaml:"timeout"`
	PageSize        int           `yaml:"page_size"`
}

// Default returns a config with everything but the base URL filled in.
func Default() Config {
	return Config{
		PreviewEndpoint: ssp.DefaultPreviewEndpoint,
		Timeout:         15 * time.Second,
		PageSize:        ssp.DefaultPageSize,
	}
}

// DefaultPath is ~/.ssprc, falling back to the working directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return rcName
	}
	return filepath.Join(home, rcName)
}

// Load reads the rc file at path (KEY=value lines) and applies environment
// overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	vals, err := godotenv.Read(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := apply(&cfg, vals); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadYAML reads a YAML config file, then applies environment overrides.
func LoadYAML(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	merge(&cfg, file)
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadAuto picks the loader by file extension: .yaml/.yml use LoadYAML,
// everything else is treated as an rc file.
func LoadAuto(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return Load(path)
	}
}

// Save writes cfg in the format LoadAuto expects for path: YAML for
// .yaml/.yml, an rc file otherwise.
func Save(path string, cfg Config) error {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return errors.New("base url is empty")
	}
	var (
		content []byte
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		content, err = marshalYAML(cfg)
	default:
		content, err = marshalRC(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o600)
}

func marshalRC(cfg Config) ([]byte, error) {
	vals := map[string]string{KeyBaseURL: cfg.BaseURL}
	if cfg.Token != "" {
		vals[KeyToken] = cfg.Token
	}
	if cfg.PreviewEndpoint != "" && cfg.PreviewEndpoint != ssp.DefaultPreviewEndpoint {
		vals[KeyPreviewEndpoint] = cfg.PreviewEndpoint
	}
	if cfg.Timeout > 0 {
		vals[KeyTimeoutSeconds] = strconv.Itoa(int(cfg.Timeout / time.Second))
	}
	if cfg.PageSize > 0 {
		vals[KeyPageSize] = strconv.Itoa(cfg.PageSize)
	}
	content, err := godotenv.Marshal(vals)
	if err != nil {
		return nil, err
	}
	return []byte(content + "\n"), nil
}

// yamlFile mirrors Config with the timeout spelled as a duration string.
type yamlFile struct {
	BaseURL         string `yaml:"base_url"`
	Token           string `yaml:"token,omitempty"`
	PreviewEndpoint string `yaml:"preview_endpoint,omitempty"`
	Timeout         string `yaml:"timeout,omitempty"`
	PageSize        int    `yaml:"page_size,omitempty"`
}

func marshalYAML(cfg Config) ([]byte, error) {
	f := yamlFile{BaseURL: cfg.BaseURL, Token: cfg.Token, PageSize: cfg.PageSize}
	if cfg.PreviewEndpoint != ssp.DefaultPreviewEndpoint {
		f.PreviewEndpoint = cfg.PreviewEndpoint
	}
	if cfg.Timeout > 0 {
		f.Timeout = cfg.Timeout.String()
	}
	return yaml.Marshal(f)
}

// Validate checks that the config can build a client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("no base url configured (set %s or base_url)", KeyBaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base url %q must be an absolute http(s) url", c.BaseURL)
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page size must be >= 0, got %d", c.PageSize)
	}
	return nil
}

// ClientOptions maps the config onto ssp.Options.
func (c Config) ClientOptions() ssp.Options {
	return ssp.Options{
		BaseURL:         c.BaseURL,
		Token:           c.Token,
		PreviewEndpoint: c.PreviewEndpoint,
		PageSize:        c.PageSize,
		Timeout:         c.Timeout,
	}
}

func merge(dst *Config, src Config) {
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.Token != "" {
		dst.Token = src.Token
	}
	if src.PreviewEndpoint != "" {
		dst.PreviewEndpoint = src.PreviewEndpoint
	}
	if src.Timeout > 0 {
		dst.Timeout = src.Timeout
	}
	if src.PageSize > 0 {
		dst.PageSize = src.PageSize
	}
}

func apply(cfg *Config, vals map[string]string) error {
	var src Config
	src.BaseURL = strings.TrimSpace(vals[KeyBaseURL])
	src.Token = strings.TrimSpace(vals[KeyToken])
	src.PreviewEndpoint = strings.TrimSpace(vals[KeyPreviewEndpoint])
	if v := strings.TrimSpace(vals[KeyTimeoutSeconds]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: invalid value %q", KeyTimeoutSeconds, v)
		}
		src.Timeout = time.Duration(n) * time.Second
	}
	if v := strings.TrimSpace(vals[KeyPageSize]); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("%s: invalid value %q", KeyPageSize, v)
		}
		src.PageSize = n
	}
	merge(cfg, src)
	return nil
}

func applyEnv(cfg *Config) error {
	vals := make(map[string]string)
	for _, k := range []string{KeyBaseURL, KeyToken, KeyPreviewEndpoint, KeyTimeoutSeconds, KeyPageSize} {
		if v, ok := os.LookupEnv(k); ok {
			vals[k] = v
		}
	}
	if err := apply(cfg, vals); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
