// Package config loads the client settings from the environment, an optional
// .env file and an optional agromitra.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults used when nothing else is configured.
const (
	DefaultAPIURL       = "http://localhost:3001"
	DefaultLogLevel     = "warn"
	DefaultPollInterval = 15 * time.Second
	DefaultTimeout      = 30 * time.Second
	ConfigName          = "agromitra"
)

// Config holds the client settings.
type Config struct {
	APIURL      string        `mapstructure:"api_url"`
	LogLevel    string        `mapstructure:"log_level"`
	StoragePath string        `mapstructure:"storage_path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Orders      struct {
		PollInterval time.Duration `mapstructure:"poll_interval"`
		MetricsAddr  string        `mapstructure:"metrics_addr"`
	} `mapstructure:"orders"`
	Speech struct {
		TTS string `mapstructure:"tts"`
		STT string `mapstructure:"stt"`
	} `mapstructure:"speech"`
}

// Load reads .env (when present) into the process environment and resolves
// the settings. file names an explicit config file; when empty,
// agromitra.yaml is looked up in the working directory and in ~/.agromitra.
func Load(file string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("storage_path", defaultStoragePath())
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("orders.poll_interval", DefaultPollInterval)
	v.SetDefault("orders.metrics_addr", "")
	v.SetDefault("speech.tts", "")
	v.SetDefault("speech.stt", "")

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".agromitra"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("api_url", "AGROMITRA_API_URL", "NEXT_PUBLIC_API_URL")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("storage_path", "AGROMITRA_STORAGE")
	_ = v.BindEnv("timeout", "AGROMITRA_TIMEOUT")
	_ = v.BindEnv("orders.poll_interval", "ORDERS_POLL_INTERVAL")
	_ = v.BindEnv("orders.metrics_addr", "METRICS_ADDR")
	_ = v.BindEnv("speech.tts", "AGROMITRA_TTS")
	_ = v.BindEnv("speech.stt", "AGROMITRA_STT")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	c.APIURL = strings.TrimSpace(c.APIURL)
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Orders.PollInterval <= 0 {
		c.Orders.PollInterval = DefaultPollInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c, nil
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".agromitra", "state.json")
	}
	return filepath.Join(home, ".agromitra", "state.json")
}
