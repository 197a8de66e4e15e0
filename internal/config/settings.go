// Package config loads the swarm core's settings: the three environment
// variables spec.md §6 names (PROJECT_DIR, CLAUDE_PATH, USER_TIMEZONE)
// plus every numeric ceiling spec.md §5 leaves "configured" — budgets,
// concurrency, timeouts, retention. Grounded on the teacher's
// internal/config/settings.go viper.New() + BindEnv + mapstructure-tagged
// nested-struct pattern; the HDRP service-discovery fields it bound are
// replaced with this core's own knobs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the swarm core's full runtime configuration.
type Config struct {
	Environment string `mapstructure:"environment"`

	ProjectDir   string `mapstructure:"project_dir"`
	ClaudePath   string `mapstructure:"claude_path"`
	UserTimezone string `mapstructure:"user_timezone"`

	Budget     BudgetConfig     `mapstructure:"budget"`
	Supervisor SupervisorConfig `mapstructure:"supervisor"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
	Retention  RetentionConfig  `mapstructure:"retention"`
}

// BudgetConfig holds the default per-graph ceilings a new graph inherits
// when the builder caller doesn't override them.
type BudgetConfig struct {
	DefaultMaxCostUSD    float64       `mapstructure:"default_max_cost_usd"`
	DefaultMaxWallClock  time.Duration `mapstructure:"default_max_wall_clock"`
	DefaultMaxConcurrent int           `mapstructure:"default_max_concurrent"`
}

// SupervisorConfig holds the Task Supervisor's ceilings and sweep cadence.
type SupervisorConfig struct {
	GlobalMaxConcurrent int           `mapstructure:"global_max_concurrent"`
	InactivityTimeout   time.Duration `mapstructure:"inactivity_timeout"`
	SweepCron           string        `mapstructure:"sweep_cron"`
}

// BreakerConfig holds the Circuit Breaker Registry's default trip rule.
type BreakerConfig struct {
	FailureThreshold    int           `mapstructure:"failure_threshold"`
	ResetTimeout        time.Duration `mapstructure:"reset_timeout"`
	HalfOpenSuccessThreshold int      `mapstructure:"half_open_success_threshold"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
}

// RetentionConfig holds archival windows for terminal entities.
type RetentionConfig struct {
	TaskRetention   time.Duration `mapstructure:"task_retention"`
	TaskArchiveSize int           `mapstructure:"task_archive_size"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("project_dir", ".")
	v.SetDefault("claude_path", "claude")
	v.SetDefault("user_timezone", "UTC")

	v.SetDefault("budget.default_max_cost_usd", 5.0)
	v.SetDefault("budget.default_max_wall_clock", "30m")
	v.SetDefault("budget.default_max_concurrent", 3)

	v.SetDefault("supervisor.global_max_concurrent", 5)
	v.SetDefault("supervisor.inactivity_timeout", "5m")
	v.SetDefault("supervisor.sweep_cron", "*/5 * * * * *")

	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout", "30s")
	v.SetDefault("breaker.half_open_success_threshold", 2)
	v.SetDefault("breaker.request_timeout", "15s")

	v.SetDefault("retention.task_retention", "24h")
	v.SetDefault("retention.task_archive_size", 100)
}

// Load reads configuration from a YAML file plus an environment-specific
// overlay plus SWARMCORE_*-prefixed environment variable overrides, in
// that ascending order of precedence. configPath may be empty, in which
// case defaults plus environment variables alone populate the Config.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	defaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		}

		configDir := filepath.Dir(configPath)
		configExt := filepath.Ext(configPath)
		configBase := strings.TrimSuffix(filepath.Base(configPath), configExt)

		env := os.Getenv("SWARMCORE_ENV")
		if env == "" {
			env = v.GetString("environment")
		}
		envConfigPath := filepath.Join(configDir, fmt.Sprintf("%s.%s%s", configBase, env, configExt))
		if _, err := os.Stat(envConfigPath); err == nil {
			v.SetConfigFile(envConfigPath)
			if err := v.MergeInConfig(); err != nil {
				return nil, fmt.Errorf("config: merge %s: %w", envConfigPath, err)
			}
		}
	}

	v.SetEnvPrefix("SWARMCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// spec.md §6's three environment variables are read under their own
	// bare names, not the SWARMCORE_ prefix, since they're documented as
	// standalone process environment, not app config.
	if pd := os.Getenv("PROJECT_DIR"); pd != "" {
		v.Set("project_dir", pd)
	}
	if cp := os.Getenv("CLAUDE_PATH"); cp != "" {
		v.Set("claude_path", cp)
	}
	if tz := os.Getenv("USER_TIMEZONE"); tz != "" {
		v.Set("user_timezone", tz)
	}

	v.BindEnv("budget.default_max_cost_usd", "SWARMCORE_BUDGET_DEFAULT_MAX_COST_USD")
	v.BindEnv("budget.default_max_concurrent", "SWARMCORE_BUDGET_DEFAULT_MAX_CONCURRENT")
	v.BindEnv("supervisor.global_max_concurrent", "SWARMCORE_SUPERVISOR_GLOBAL_MAX_CONCURRENT")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ProjectDir == "" {
		return fmt.Errorf("project_dir is required")
	}
	if cfg.ClaudePath == "" {
		return fmt.Errorf("claude_path is required")
	}
	if cfg.Supervisor.GlobalMaxConcurrent <= 0 {
		return fmt.Errorf("supervisor.global_max_concurrent must be greater than 0")
	}
	if cfg.Budget.DefaultMaxConcurrent <= 0 {
		return fmt.Errorf("budget.default_max_concurrent must be greater than 0")
	}
	return nil
}

// DataDir resolves the data directory spec.md §6 names: <projectDir>/data.
func (c *Config) DataDir() string {
	return filepath.Join(c.ProjectDir, "data")
}
