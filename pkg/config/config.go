package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lfti/trustindex/pkg/trust"
)

const (
	configFileName = "config.yaml"
	dbFileName     = "trustindex.db"
	dirMode        = 0700
	fileMode       = 0600

	// Environment variables override file values. Named after the flags
	// they shadow.
	envDBPath      = "TRUSTINDEX_DB_PATH"
	envIngestURL   = "TRUSTINDEX_INGEST_URL"
	envIngestToken = "TRUSTINDEX_INGEST_TOKEN"
	envServerPort  = "TRUSTINDEX_PORT"
	envRefresh     = "TRUSTINDEX_REFRESH"
)

// Config is the full scoring engine configuration: weighting scheme,
// grade scale, per-source-type expectations, and the operational bits
// around them. Loaded once at startup and validated before any source
// is touched.
type Config struct {
	Weights      []trust.Weight           `yaml:"weights"`
	Grades       []trust.GradeBand        `yaml:"grades"`
	Expectations map[string]SourceProfile `yaml:"expectations,omitempty"`
	Ingest       Ingest                   `yaml:"ingest"`
	Server       Server                   `yaml:"server"`
	DBPath       string                   `yaml:"db"`
}

// Duration wraps time.Duration so config files can say "12h" or "7d"
// equivalents instead of nanosecond counts.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// SourceProfile declares what a source type should look like: the fields
// its scraper must fill and how often the upstream publishes.
type SourceProfile struct {
	Fields  []trust.FieldSpec `yaml:"fields"`
	Refresh Duration          `yaml:"refresh"`
}

// Ingest configures where source snapshots are pulled from.
type Ingest struct {
	URL     string   `yaml:"url"`
	Token   string   `yaml:"token,omitempty"`
	Timeout Duration `yaml:"timeout"`
}

// Server configures the dashboard server.
type Server struct {
	Port    int    `yaml:"port"`
	Refresh string `yaml:"refresh,omitempty"` // cron expression, empty disables
}

// Default returns the stock configuration: built-in weights, the A-F
// scale, and reference expectations for every known source type.
func Default() *Config {
	exp := trust.DefaultExpectations()
	profiles := make(map[string]SourceProfile, len(trust.SourceTypes))
	for _, st := range trust.SourceTypes {
		profiles[string(st)] = SourceProfile{
			Fields:  exp.Fields[st],
			Refresh: Duration(exp.Refresh[st]),
		}
	}
	return &Config{
		Weights:      trust.DefaultWeights(),
		Grades:       trust.DefaultGradeBands(),
		Expectations: profiles,
		Ingest:       Ingest{Timeout: Duration(30 * time.Second)},
		Server:       Server{Port: 8080},
	}
}

// Load reads configuration from path, falling back to defaults when path
// is empty or the file does not exist, then applies environment overrides
// and validates. Any validation failure aborts the run.
func Load(path string) (*Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			slog.Debug("config file not found, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(b, c); err != nil {
				return nil, fmt.Errorf("%w: failed to parse %s: %v", trust.ErrInvalidConfig, path, err)
			}
		}
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(envIngestURL); v != "" {
		c.Ingest.URL = v
	}
	if v := os.Getenv(envIngestToken); v != "" {
		c.Ingest.Token = v
	}
	if v := os.Getenv(envServerPort); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		} else {
			slog.Warn("ignoring non-numeric port override", "env", envServerPort, "value", v)
		}
	}
	if v := os.Getenv(envRefresh); v != "" {
		c.Server.Refresh = v
	}
}

// Validate checks every scoring-relevant section by building it. The
// weighting scheme and grade scale enforce their own rules; this only
// adds the operational constraints.
func (c *Config) Validate() error {
	if _, err := trust.NewWeightingScheme(c.Weights); err != nil {
		return err
	}
	if _, err := trust.NewGradeScale(c.Grades); err != nil {
		return err
	}
	for name, p := range c.Expectations {
		if trust.ParseSourceType(name) == trust.SourceTypeOther && name != string(trust.SourceTypeOther) {
			return fmt.Errorf("%w: expectations for unknown source type %q", trust.ErrInvalidConfig, name)
		}
		if p.Refresh < 0 {
			return fmt.Errorf("%w: negative refresh interval for source type %q", trust.ErrInvalidConfig, name)
		}
		for _, f := range p.Fields {
			if strings.TrimSpace(f.Name) == "" {
				return fmt.Errorf("%w: unnamed field expectation for source type %q", trust.ErrInvalidConfig, name)
			}
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", trust.ErrInvalidConfig, c.Server.Port)
	}
	if c.Ingest.Timeout < 0 {
		return fmt.Errorf("%w: negative ingest timeout", trust.ErrInvalidConfig)
	}
	return nil
}

// Scheme builds the validated weighting scheme.
func (c *Config) Scheme() (*trust.WeightingScheme, error) {
	return trust.NewWeightingScheme(c.Weights)
}

// Scale builds the validated grade scale.
func (c *Config) Scale() (*trust.GradeScale, error) {
	return trust.NewGradeScale(c.Grades)
}

// TrustExpectations converts the configured profiles into the form the
// checks consume. Source types without a profile fall back to defaults
// inside the audit layer.
func (c *Config) TrustExpectations() trust.Expectations {
	exp := trust.Expectations{
		Fields:  make(map[trust.SourceType][]trust.FieldSpec, len(c.Expectations)),
		Refresh: make(map[trust.SourceType]time.Duration, len(c.Expectations)),
	}
	for name, p := range c.Expectations {
		st := trust.ParseSourceType(name)
		if len(p.Fields) > 0 {
			exp.Fields[st] = p.Fields
		}
		if p.Refresh > 0 {
			exp.Refresh[st] = time.Duration(p.Refresh)
		}
	}
	return exp
}

// Save writes the config to dirPath/config.yaml.
func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, configFileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// GetOrCreateHomeDir returns the app home directory under the user's
// home, creating it on first use. The create flag is set to true if the
// directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}

// DefaultDBPath returns the database location under the app home dir.
func DefaultDBPath(homeDir string) string {
	return filepath.Join(homeDir, dbFileName)
}
