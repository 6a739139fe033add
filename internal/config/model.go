package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/inkpress/desk/internal/common"
	"github.com/inkpress/desk/internal/models"
)

// Config represents the application configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Storage StorageConfig `mapstructure:"storage"`
	Session SessionConfig `mapstructure:"session"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`

	logger *deskLogger
}

// APIConfig points at the content API.
type APIConfig struct {
	Endpoint string        `mapstructure:"endpoint" default:"http://localhost:8080"`
	Base     string        `mapstructure:"base" default:"/api"`
	Timeout  time.Duration `mapstructure:"timeout" default:"15s"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" default:"file"` // file, sqlite or memory
	Path   string `mapstructure:"path"`                  // directory for file, database for sqlite
}

type SessionConfig struct {
	// Upper bound for restoring a stored credential at startup. Zero waits
	// for as long as the content API takes.
	InitTimeout time.Duration `mapstructure:"init_timeout" default:"10s"`
}

type ServerConfig struct {
	Host   string       `mapstructure:"host" default:"127.0.0.1"`
	Port   int          `mapstructure:"port" default:"5230"`
	Secret string       `mapstructure:"secret"` // Secret used for signing console cookies
	Limits LimitsConfig `mapstructure:"limits"`
	Cors   CorsConfig   `mapstructure:"cors"`
}

type LimitsConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" default:"0s"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" default:"120s"`

	// Sign-in form submissions allowed per second per client, and the burst
	// above that rate. A zero rate disables the limit.
	AuthRate  float64 `mapstructure:"auth_rate" default:"0.2"`
	AuthBurst int     `mapstructure:"auth_burst" default:"5"`
}

type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" default:"info"`
	Format string `mapstructure:"format" default:"text"`
}

func (c *Config) GetAPIEndpoint() string {
	return strings.TrimSuffix(c.API.Endpoint, "/")
}

// SetAPIEndpoint overrides the configured content API endpoint.
func (c *Config) SetAPIEndpoint(endpoint string) error {
	if !common.IsValidEndpoint(endpoint) {
		return fmt.Errorf("invalid api endpoint: %s", endpoint)
	}
	c.API.Endpoint = endpoint
	return nil
}

// GetAPIHostname returns the host (and port, if any) of the content API. It
// namespaces the stored credential so each site keeps its own session.
func (c *Config) GetAPIHostname() string {
	parsed, err := url.Parse(c.GetAPIEndpoint())
	if err != nil || len(parsed.Host) == 0 {
		return "default"
	}
	return strings.ReplaceAll(parsed.Host, ":", "_")
}

func (c *Config) GetServerAddress() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) GetLocalServerURL() string {
	host := c.Server.Host
	if len(host) == 0 || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(c.Server.Port)))
}

// RecentLogs returns the most recent log entries captured since Load, oldest
// first.
func (c *Config) RecentLogs(count int) []*models.LogEntry {
	if c.logger == nil {
		return nil
	}
	return c.logger.GetRecentEvents(count)
}
