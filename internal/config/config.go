// Package config loads labormarket settings from YAML files and environment
// variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/talgya/labormarket/internal/engine"
	"github.com/talgya/labormarket/internal/jobs"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LABORMARKET_"

// Config contains all labormarket settings.
type Config struct {
	Seed int64 `json:"seed" yaml:"seed"`

	// ExpiryTTL is how long an advert stays up, in elapsed seconds.
	ExpiryTTL float64 `json:"expiry_ttl" yaml:"expiry_ttl" validate:"gt=0"`

	// MaxHiresPerRolePerTick caps hires into one role per tick. 0 disables the cap.
	MaxHiresPerRolePerTick int `json:"max_hires_per_role_per_tick" yaml:"max_hires_per_role_per_tick" validate:"gte=0"`

	// TickSeconds is the elapsed simulated time covered by one tick.
	TickSeconds float64 `json:"tick_seconds" yaml:"tick_seconds" validate:"gt=0"`

	// TickInterval is the wall-clock pacing of one tick at speed 1.
	TickInterval time.Duration `json:"tick_interval" yaml:"tick_interval" validate:"gt=0"`

	// TimeScale is game-seconds per elapsed second (86400 = a day per second).
	TimeScale float64 `json:"time_scale" yaml:"time_scale" validate:"gt=0"`

	BirthsPerYear        float64 `json:"births_per_year" yaml:"births_per_year" validate:"gte=0"`
	BirthFluctuation     float64 `json:"birth_fluctuation" yaml:"birth_fluctuation" validate:"gte=0,lte=1"`
	AverageLifespanYears float64 `json:"average_lifespan_years" yaml:"average_lifespan_years" validate:"gte=0"`
	InitialPopulation    int     `json:"initial_population" yaml:"initial_population" validate:"gte=0"`

	// ReportEvery is the number of ticks between report lines and journal
	// snapshots. 0 disables reporting.
	ReportEvery uint64 `json:"report_every" yaml:"report_every"`

	// DBPath is the SQLite run journal. Empty disables the journal.
	DBPath string `json:"db_path" yaml:"db_path"`

	// APIPort serves the HTTP API. 0 disables it.
	APIPort  int    `json:"api_port" yaml:"api_port" validate:"gte=0,lte=65535"`
	AdminKey string `json:"-" yaml:"admin_key,omitempty"`

	LogLevel string `json:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	Jobs []JobConfig `json:"jobs" yaml:"jobs" validate:"dive"`
}

// JobConfig declares one job and its roles.
type JobConfig struct {
	Name  string       `json:"name" yaml:"name" validate:"required"`
	Roles []RoleConfig `json:"roles" yaml:"roles" validate:"required,min=1,dive"`
}

// RoleConfig declares one role's seat bounds and eligibility rules.
type RoleConfig struct {
	Name        string             `json:"name,omitempty" yaml:"name,omitempty"`
	Min         int                `json:"min" yaml:"min" validate:"gte=0"`
	Max         int                `json:"max" yaml:"max" validate:"gtefield=Min"`
	Constraints []ConstraintConfig `json:"constraints,omitempty" yaml:"constraints,omitempty" validate:"dive"`
}

// ConstraintConfig is a named constraint, e.g. {kind: age_lt, years: 18}.
type ConstraintConfig struct {
	Kind  string  `json:"kind" yaml:"kind" validate:"required"`
	Years float64 `json:"years" yaml:"years" validate:"gte=0"`
}

var validate = validator.New()

// Default returns a Config with the stock town: a school, one game-day per
// second and a 60-second advert expiry.
func Default() *Config {
	return &Config{
		Seed:                   1,
		ExpiryTTL:              60,
		MaxHiresPerRolePerTick: 8,
		TickSeconds:            1,
		TickInterval:           time.Second,
		TimeScale:              86400,
		BirthsPerYear:          1000,
		AverageLifespanYears:   65,
		InitialPopulation:      500,
		ReportEvery:            30,
		DBPath:                 "labormarket.db",
		APIPort:                8080,
		LogLevel:               "info",
		Jobs:                   []JobConfig{SchoolJob()},
	}
}

// SchoolJob is the default job: 20 to 200 students under 18 and 1 to 10
// adult teachers.
func SchoolJob() JobConfig {
	return JobConfig{
		Name: "school",
		Roles: []RoleConfig{
			{Name: "student", Min: 20, Max: 200, Constraints: []ConstraintConfig{{Kind: "age_lt", Years: 18}}},
			{Name: "teacher", Min: 1, Max: 10, Constraints: []ConstraintConfig{{Kind: "age_gte", Years: 18}}},
		},
	}
}

// Load builds the configuration.
// Order: defaults -> .env -> YAML file at path (if non-empty) -> environment.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.AdminKey = os.ExpandEnv(cfg.AdminKey)
	return cfg, nil
}

// Validate checks field ranges and that every job can be built.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.BuildJobs(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// BuildJobs turns the job declarations into registry-ready jobs.
func (c *Config) BuildJobs() ([]*jobs.Job, error) {
	out := make([]*jobs.Job, 0, len(c.Jobs))
	for _, jc := range c.Jobs {
		j, err := jc.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// Build validates one job declaration and builds it.
func (jc JobConfig) Build() (*jobs.Job, error) {
	if err := validate.Struct(jc); err != nil {
		return nil, fmt.Errorf("job %q: %w", jc.Name, err)
	}
	b := jobs.NewBuilder(jc.Name)
	for i, rc := range jc.Roles {
		b.AddRole(rc.Min, rc.Max).Named(rc.Name)
		for _, cc := range rc.Constraints {
			con, err := jobs.ParseConstraint(cc.Kind, cc.Years)
			if err != nil {
				return nil, fmt.Errorf("job %q role %d: %w", jc.Name, i, err)
			}
			b.With(con)
		}
	}
	return b.Build(), nil
}

// Params maps the simulation settings onto engine parameters.
func (c *Config) Params() engine.Params {
	p := engine.DefaultParams()
	p.Seed = c.Seed
	p.ExpiryTTL = c.ExpiryTTL
	p.MaxHiresPerRolePerTick = c.MaxHiresPerRolePerTick
	p.TimeScale = c.TimeScale
	p.BirthsPerYear = c.BirthsPerYear
	p.BirthFluctuation = c.BirthFluctuation
	p.AverageLifespanYears = c.AverageLifespanYears
	p.InitialPopulation = c.InitialPopulation
	return p
}

// Engine returns a tick engine paced by the config.
func (c *Config) Engine() *engine.Engine {
	e := engine.NewEngine()
	e.Interval = c.TickInterval
	e.TickSeconds = c.TickSeconds
	e.ReportEvery = c.ReportEvery
	return e
}

// Marshal renders the config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// ParseLevel maps a level name to a slog.Level. Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyEnvOverrides(c *Config) error {
	var errs []error
	env := func(key string) (string, bool) {
		v := os.Getenv(EnvPrefix + key)
		return v, v != ""
	}
	parseFloat := func(key string, dst *float64) {
		if v, ok := env(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	parseInt := func(key string, dst *int) {
		if v, ok := env(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	if v, ok := env("SEED"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sSEED: %w", EnvPrefix, err))
		} else {
			c.Seed = n
		}
	}
	parseFloat("EXPIRY_TTL", &c.ExpiryTTL)
	parseInt("MAX_HIRES_PER_ROLE_PER_TICK", &c.MaxHiresPerRolePerTick)
	parseFloat("TICK_SECONDS", &c.TickSeconds)
	parseFloat("TIME_SCALE", &c.TimeScale)
	parseFloat("BIRTHS_PER_YEAR", &c.BirthsPerYear)
	parseFloat("BIRTH_FLUCTUATION", &c.BirthFluctuation)
	parseFloat("AVERAGE_LIFESPAN_YEARS", &c.AverageLifespanYears)
	parseInt("INITIAL_POPULATION", &c.InitialPopulation)
	parseInt("API_PORT", &c.APIPort)

	if v, ok := env("TICK_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTICK_INTERVAL: %w", EnvPrefix, err))
		} else {
			c.TickInterval = d
		}
	}
	if v, ok := env("REPORT_EVERY"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREPORT_EVERY: %w", EnvPrefix, err))
		} else {
			c.ReportEvery = n
		}
	}
	if v, ok := env("DB_PATH"); ok {
		c.DBPath = v
	}
	if v, ok := env("ADMIN_KEY"); ok {
		c.AdminKey = v
	}
	if v, ok := env("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	return errors.Join(errs...)
}
