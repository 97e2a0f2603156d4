package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Logger  LoggerConfig
	Redis   RedisConfig
	Handoff HandoffConfig
	Session SessionConfig
	Camera  CameraConfig
	Admin   AdminConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// PublicURL is the origin the frontend is reached at. Relative backend
	// URLs (same-origin deployments) are resolved against it.
	PublicURL string
}

type BackendConfig struct {
	// BaseURL selects the backend origin. Empty means same-origin.
	BaseURL string
	Timeout time.Duration
	Auth    BackendAuthConfig
}

// BackendAuthConfig enables OAuth2 client-credentials toward the backend
// when TokenURL is set.
type BackendAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

type LoggerConfig struct {
	Level string
	Env   string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

type HandoffConfig struct {
	TTL time.Duration
}

type SessionConfig struct {
	IdleTTL time.Duration
}

type CameraConfig struct {
	// Driver is "snapshot", "websocket" or empty for no camera.
	Driver      string
	URL         string
	JPEGQuality int
}

type AdminConfig struct {
	// Password gates the admin panel. Empty leaves it open.
	Password  string
	JWTSecret string
	TokenTTL  time.Duration
}

const DefaultJPEGQuality = 92

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 20)
	v.SetDefault("server.write_timeout", 20)
	v.SetDefault("server.public_url", "http://localhost:3000")
	v.SetDefault("backend.timeout", 30)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.env", "development")
	v.SetDefault("handoff.ttl", 1800)
	v.SetDefault("session.idle_ttl", 1800)
	v.SetDefault("camera.jpeg_quality", DefaultJPEGQuality)
	v.SetDefault("admin.token_ttl", 3600)
}

// LoadConfig reads config.yaml from path (or from . and ./config when path
// is empty) and applies environment overrides. A missing file is not an
// error: defaults plus environment are enough to run.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if os.Getenv("ENV") == "test" {
			v.AddConfigPath("../../config")
			v.AddConfigPath("../../")
		} else {
			v.AddConfigPath(".")
			v.AddConfigPath("./config")
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if configFile := v.ConfigFileUsed(); configFile != "" {
		absPath, _ := filepath.Abs(configFile)
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", absPath)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server.port"),
			ReadTimeout:  v.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: v.GetDuration("server.write_timeout") * time.Second,
			PublicURL:    strings.TrimRight(v.GetString("server.public_url"), "/"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(v.GetString("backend.base_url"), "/"),
			Timeout: v.GetDuration("backend.timeout") * time.Second,
			Auth: BackendAuthConfig{
				TokenURL:     v.GetString("backend.auth.token_url"),
				ClientID:     v.GetString("backend.auth.client_id"),
				ClientSecret: v.GetString("backend.auth.client_secret"),
				Scopes:       v.GetStringSlice("backend.auth.scopes"),
			},
		},
		Logger: LoggerConfig{
			Level: v.GetString("logger.level"),
			Env:   v.GetString("logger.env"),
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Handoff: HandoffConfig{
			TTL: v.GetDuration("handoff.ttl") * time.Second,
		},
		Session: SessionConfig{
			IdleTTL: v.GetDuration("session.idle_ttl") * time.Second,
		},
		Camera: CameraConfig{
			Driver:      v.GetString("camera.driver"),
			URL:         v.GetString("camera.url"),
			JPEGQuality: v.GetInt("camera.jpeg_quality"),
		},
		Admin: AdminConfig{
			Password:  v.GetString("admin.password"),
			JWTSecret: v.GetString("admin.jwt_secret"),
			TokenTTL:  v.GetDuration("admin.token_ttl") * time.Second,
		},
	}

	// Deployments configured with the legacy variable still work.
	if baseURL := os.Getenv("REACT_APP_API_BASE_URL"); baseURL != "" && cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", port)
		cfg.Server.Port = v.GetInt("server.port")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that can't work at runtime.
func (c *Config) Validate() error {
	switch c.Camera.Driver {
	case "", "snapshot", "websocket":
	default:
		return fmt.Errorf("unsupported camera driver %q", c.Camera.Driver)
	}
	if c.Camera.Driver != "" && c.Camera.URL == "" {
		return fmt.Errorf("camera.url is required for driver %q", c.Camera.Driver)
	}
	if c.Camera.JPEGQuality < 1 || c.Camera.JPEGQuality > 100 {
		return fmt.Errorf("camera.jpeg_quality must be within 1..100, got %d", c.Camera.JPEGQuality)
	}
	if c.Admin.Password != "" && len(c.Admin.JWTSecret) < 32 {
		return errors.New("admin.jwt_secret must be at least 32 bytes when admin.password is set")
	}
	return nil
}

// BackendOrigin returns the origin relative API paths are resolved against.
func (c *Config) BackendOrigin() string {
	if c.Backend.BaseURL != "" {
		return c.Backend.BaseURL
	}
	return c.Server.PublicURL
}
