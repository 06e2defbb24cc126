// Package config loads the droidloop application configuration from a YAML
// file, environment variables, and bound CLI flags, in ascending priority.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/droidloop/droidloop/pkg/execution"
)

// Config is the application configuration.
type Config struct {
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Adb     AdbConfig     `yaml:"adb" mapstructure:"adb"`
	Replay  ReplayConfig  `yaml:"replay" mapstructure:"replay"`
	History HistoryConfig `yaml:"history" mapstructure:"history"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	Console    bool   `yaml:"console" mapstructure:"console"`
	FilePath   string `yaml:"file_path" mapstructure:"file_path"`
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// AdbConfig locates the adb binary.
type AdbConfig struct {
	Binary string `yaml:"binary" mapstructure:"binary"`
}

// ReplayConfig holds replay defaults; CLI flags override per invocation.
type ReplayConfig struct {
	RetryAttempts      int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelayMs       int     `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	CaptureScreenshots bool    `yaml:"capture_screenshots" mapstructure:"capture_screenshots"`
	ScreenshotOnError  bool    `yaml:"screenshot_on_error" mapstructure:"screenshot_on_error"`
	SpeedMultiplier    float64 `yaml:"speed_multiplier" mapstructure:"speed_multiplier"`
	StopOnError        bool    `yaml:"stop_on_error" mapstructure:"stop_on_error"`
	WaitForScreenOn    bool    `yaml:"wait_for_screen_on" mapstructure:"wait_for_screen_on"`
	ScreenshotDir      string  `yaml:"screenshot_dir" mapstructure:"screenshot_dir"`
}

// HistoryConfig controls the persisted replay report store.
type HistoryConfig struct {
	Enable bool   `yaml:"enable" mapstructure:"enable"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// Load reads configuration. If v is nil a fresh viper instance is used.
// An empty path means defaults + environment only.
func Load(path string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix("DROIDLOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := execution.DefaultConfig()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 14)

	v.SetDefault("adb.binary", "adb")

	v.SetDefault("replay.retry_attempts", def.RetryAttempts)
	v.SetDefault("replay.retry_delay_ms", def.RetryDelayMs)
	v.SetDefault("replay.capture_screenshots", def.CaptureScreenshots)
	v.SetDefault("replay.screenshot_on_error", def.ScreenshotOnError)
	v.SetDefault("replay.speed_multiplier", def.SpeedMultiplier)
	v.SetDefault("replay.stop_on_error", def.StopOnError)
	v.SetDefault("replay.wait_for_screen_on", def.WaitForScreenOn)
	v.SetDefault("replay.screenshot_dir", def.ScreenshotDir)

	v.SetDefault("history.enable", true)
	v.SetDefault("history.path", "droidloop_history.db")
}

// ExecutionConfig converts the replay defaults into an execution.Config.
func (c *Config) ExecutionConfig() execution.Config {
	return execution.Config{
		RetryAttempts:      c.Replay.RetryAttempts,
		RetryDelayMs:       c.Replay.RetryDelayMs,
		CaptureScreenshots: c.Replay.CaptureScreenshots,
		ScreenshotOnError:  c.Replay.ScreenshotOnError,
		SpeedMultiplier:    c.Replay.SpeedMultiplier,
		StopOnError:        c.Replay.StopOnError,
		WaitForScreenOn:    c.Replay.WaitForScreenOn,
		ScreenshotDir:      c.Replay.ScreenshotDir,
	}
}
