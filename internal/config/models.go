package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bryanchriswhite/framegrab/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Camera types understood by capture.Open
const (
	CameraV4L2      = "v4l2"
	CameraGStreamer = "gstreamer"
	CameraX11       = "x11"
	CameraPattern   = "pattern"
)

// PixelFormats lists the camera.pixel_format names accepted by capture.ParsePixelFormat
var PixelFormats = []string{"yuyv", "yuy2", "mjpeg", "mjpg", "rgba"}

// CameraConfig selects and configures the capture device
type CameraConfig struct {
	Type        string `json:"type" yaml:"type" mapstructure:"type"`
	Index       int    `json:"index" yaml:"index" mapstructure:"index"`                      // /dev/video<index> when Device is empty
	Device      string `json:"device" yaml:"device" mapstructure:"device"`                   // explicit device path, overrides Index
	PixelFormat string `json:"pixel_format" yaml:"pixel_format" mapstructure:"pixel_format"` // see PixelFormats
	Width       int    `json:"width" yaml:"width" mapstructure:"width"`
	Height      int    `json:"height" yaml:"height" mapstructure:"height"`
	TimeoutSec  int    `json:"timeout_sec" yaml:"timeout_sec" mapstructure:"timeout_sec"` // per-frame wait
}

// DevicePath returns the device node for the camera
func (c CameraConfig) DevicePath() string {
	if c.Device != "" {
		return c.Device
	}
	return fmt.Sprintf("/dev/video%d", c.Index)
}

// PreviewConfig configures the browser preview and the optional X11 window
type PreviewConfig struct {
	Enabled     bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Port        int  `json:"port" yaml:"port" mapstructure:"port"`
	MaxWidth    int  `json:"max_width" yaml:"max_width" mapstructure:"max_width"`
	JPEGQuality int  `json:"jpeg_quality" yaml:"jpeg_quality" mapstructure:"jpeg_quality"`
	Caption     bool `json:"caption" yaml:"caption" mapstructure:"caption"`
	Window      bool `json:"window" yaml:"window" mapstructure:"window"` // also show frames in an X11 window
}

// CaptureConfig configures the capture loop
type CaptureConfig struct {
	MaxFrames int `json:"max_frames" yaml:"max_frames" mapstructure:"max_frames"` // 0 = until quit
}

// Config represents the application configuration
type Config struct {
	LogLevel  string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty bool          `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Camera    CameraConfig  `json:"camera" yaml:"camera" mapstructure:"camera"`
	Preview   PreviewConfig `json:"preview" yaml:"preview" mapstructure:"preview"`
	Capture   CaptureConfig `json:"capture" yaml:"capture" mapstructure:"capture"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		LogLevel:  "info",
		LogPretty: true,
		Camera: CameraConfig{
			Type:        CameraV4L2,
			Index:       0,
			PixelFormat: "yuyv",
			Width:       640,
			Height:      480,
			TimeoutSec:  5,
		},
		Preview: PreviewConfig{
			Enabled:     true,
			Port:        8080,
			MaxWidth:    640,
			JPEGQuality: 80,
			Caption:     true,
		},
	}
}

// Validate checks value ranges and known enumerations
func (c *Config) Validate() error {
	var errs []error

	switch c.Camera.Type {
	case CameraV4L2, CameraGStreamer, CameraX11, CameraPattern:
	default:
		errs = append(errs, fmt.Errorf("camera.type must be one of v4l2, gstreamer, x11, pattern, got %q", c.Camera.Type))
	}
	if !slices.Contains(PixelFormats, strings.ToLower(c.Camera.PixelFormat)) {
		errs = append(errs, fmt.Errorf("camera.pixel_format must be one of %s, got %q",
			strings.Join(PixelFormats, ", "), c.Camera.PixelFormat))
	}
	if c.Camera.Index < 0 {
		errs = append(errs, fmt.Errorf("camera.index must be >= 0, got %d", c.Camera.Index))
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height))
	}
	if c.Camera.TimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("camera.timeout_sec must be > 0, got %d", c.Camera.TimeoutSec))
	}
	if c.Preview.Enabled && (c.Preview.Port <= 0 || c.Preview.Port > 65535) {
		errs = append(errs, fmt.Errorf("preview.port must be 1-65535, got %d", c.Preview.Port))
	}
	if c.Preview.MaxWidth < 0 {
		errs = append(errs, fmt.Errorf("preview.max_width must be >= 0, got %d", c.Preview.MaxWidth))
	}
	if c.Preview.JPEGQuality < 1 || c.Preview.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("preview.jpeg_quality must be 1-100, got %d", c.Preview.JPEGQuality))
	}
	if c.Capture.MaxFrames < 0 {
		errs = append(errs, fmt.Errorf("capture.max_frames must be >= 0, got %d", c.Capture.MaxFrames))
	}

	return errors.Join(errs...)
}

// Manager handles configuration
type Manager struct {
	configPath string
	v          *viper.Viper
	config     *Config
	mu         sync.RWMutex
}

// DefaultPath returns $HOME/.config/framegrab/config.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "framegrab", "config.yaml"), nil
}

// NewManager creates a configuration manager. An empty configFile means the
// default path; a missing default file is not an error, the built-in defaults
// apply. Environment variables prefixed FRAMEGRAB_ override file values.
func NewManager(configFile string) (*Manager, error) {
	return NewManagerWithViper(configFile, viper.New())
}

// NewManagerWithViper is NewManager with a caller-provided viper instance,
// typically one with cobra flags already bound.
func NewManagerWithViper(configFile string, v *viper.Viper) (*Manager, error) {
	explicit := configFile != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		configFile = p
	}

	setDefaults(v, Defaults())
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FRAMEGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m := &Manager{
		configPath: configFile,
		v:          v,
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logger.WithComponent("config").Debug().
			Str("path", configFile).
			Msg("Config file not found, using defaults")
	}

	if err := m.load(); err != nil {
		return nil, err
	}

	logger.WithComponent("config").Debug().
		Str("path", m.configPath).
		Str("camera", m.config.Camera.Type).
		Msg("Config loaded")

	return m, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
	v.SetDefault("camera.type", d.Camera.Type)
	v.SetDefault("camera.index", d.Camera.Index)
	v.SetDefault("camera.device", d.Camera.Device)
	v.SetDefault("camera.pixel_format", d.Camera.PixelFormat)
	v.SetDefault("camera.width", d.Camera.Width)
	v.SetDefault("camera.height", d.Camera.Height)
	v.SetDefault("camera.timeout_sec", d.Camera.TimeoutSec)
	v.SetDefault("preview.enabled", d.Preview.Enabled)
	v.SetDefault("preview.port", d.Preview.Port)
	v.SetDefault("preview.max_width", d.Preview.MaxWidth)
	v.SetDefault("preview.jpeg_quality", d.Preview.JPEGQuality)
	v.SetDefault("preview.caption", d.Preview.Caption)
	v.SetDefault("preview.window", d.Preview.Window)
	v.SetDefault("capture.max_frames", d.Capture.MaxFrames)
}

// load unmarshals the merged viper state and validates it
func (m *Manager) load() error {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Camera.PixelFormat = strings.ToLower(cfg.Camera.PixelFormat)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	m.mu.Lock()
	m.config = &cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return Defaults()
	}
	cfg := *m.config
	return &cfg
}

// WriteFile writes cfg to path as YAML, creating the parent directory
func WriteFile(path string, cfg *Config) error {
	log := logger.WithComponent("config")

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		log.Error().
			Err(err).
			Str("config_dir", configDir).
			Msg("Failed to create config directory")
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Error().
			Err(err).
			Str("path", path).
			Msg("Failed to write config")
		return err
	}

	log.Info().
		Str("path", path).
		Msg("Config saved successfully")
	return nil
}

// GetConfigPath returns the path to the config file
func (m *Manager) GetConfigPath() string {
	return m.configPath
}
