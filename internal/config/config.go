// Package config loads sentiscribe settings from YAML, environment and
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SENTISCRIBE_CLASSIFIER_URL.
const EnvPrefix = "SENTISCRIBE"

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = EnvPrefix + "_CONFIG"

// Transcription provider names.
const (
	ProviderTyped     = "typed"
	ProviderDaemon    = "daemon"
	ProviderWebSocket = "websocket"
)

// ErrExists is returned by WriteDefault when the target file already exists.
var ErrExists = errors.New("config file already exists")

// Config is the full application configuration.
type Config struct {
	Listener      ListenerConfig      `mapstructure:"listener"`
	Transcription TranscriptionConfig `mapstructure:"transcription"`
	Classifier    ClassifierConfig    `mapstructure:"classifier"`
	Speech        SpeechConfig        `mapstructure:"speech"`
	Export        ExportConfig        `mapstructure:"export"`
	Log           LogConfig           `mapstructure:"log"`
}

type ListenerConfig struct {
	Delay      time.Duration `mapstructure:"delay" validate:"gte=0"`
	StopPhrase string        `mapstructure:"stop_phrase" validate:"required"`
}

type TranscriptionConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=typed daemon websocket"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Socket   string        `mapstructure:"socket"`
	Locale   string        `mapstructure:"locale"`
	Device   string        `mapstructure:"device"`
	URL      string        `mapstructure:"url" validate:"required_if=Provider websocket"`
}

type ClassifierConfig struct {
	URL     string        `mapstructure:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type SpeechConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Command string   `mapstructure:"command" validate:"required_if=Enabled true"`
	Args    []string `mapstructure:"args"`
	Async   bool     `mapstructure:"async"`
}

type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listener.delay", "1s")
	v.SetDefault("listener.stop_phrase", "stop listening")

	v.SetDefault("transcription.provider", ProviderTyped)
	v.SetDefault("transcription.timeout", "10s")
	v.SetDefault("transcription.socket", "")
	v.SetDefault("transcription.locale", "")
	v.SetDefault("transcription.device", "")
	v.SetDefault("transcription.url", "")

	v.SetDefault("classifier.url", "http://127.0.0.1:5005")
	v.SetDefault("classifier.timeout", "5s")

	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.command", "")
	v.SetDefault("speech.args", []string{})
	v.SetDefault("speech.async", false)

	v.SetDefault("export.dir", ".")

	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
}

// Load reads configuration. An explicit path must exist; otherwise the
// first file found in SearchPaths is used, and no file at all means
// defaults. It returns the file that was read, if any.
func Load(path string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = find()
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

// Validate checks field constraints.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SearchPaths lists where Load looks when no path is given, in order.
func SearchPaths() []string {
	var paths []string
	if p := os.Getenv(EnvConfigPath); p != "" {
		paths = append(paths, p)
	}
	paths = append(paths, "sentiscribe.yaml")
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sentiscribe", "config.yaml"))
	}
	return paths
}

// DefaultPath is where `config init` writes when given no path.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sentiscribe.yaml"
	}
	return filepath.Join(home, ".config", "sentiscribe", "config.yaml")
}

func find() string {
	for _, p := range SearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultYAML renders the default configuration as YAML.
func DefaultYAML() ([]byte, error) {
	v := viper.New()
	setDefaults(v)
	out, err := yaml.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	return out, nil
}

// WriteDefault writes the default configuration to path, creating parent
// directories. It never overwrites an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
