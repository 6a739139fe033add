package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	EnvPrefix = "DESK"

	DefaultAPIEndpoint = "http://localhost:8080"
	DefaultAPIBase     = "/api"
)

// DefaultConfig returns the configuration built from defaults alone.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		logrus.WithError(err).Fatalln("Error unmarshaling default config")
	}

	return &config
}

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	setupViperConfig(v, configFile)
	bindEnvironmentVariables(v)

	config, err := readAndUnmarshalConfig(v)
	if err != nil {
		return nil, err
	}

	if err := setupLogging(config, v); err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile loads the .env file if it exists
func loadEnvFile() error {
	if err := gotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("error loading .env file: %w", err)
		}
	}
	return nil
}

// setupViperConfig configures viper with file paths and defaults
func setupViperConfig(v *viper.Viper, configFile string) {
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/inkpress")

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "inkpress"))
	}

	if len(configFile) > 0 {
		v.SetConfigFile(configFile)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// bindEnvironmentVariables binds the environment variables whose names do not
// follow the key layout
func bindEnvironmentVariables(v *viper.Viper) {
	v.BindEnv("api.endpoint", "DESK_API_ENDPOINT", "INKPRESS_API_URL")
	v.BindEnv("server.secret", "DESK_SERVER_SECRET", "DESK_SECRET")
	v.BindEnv("session.init_timeout", "DESK_SESSION_INIT_TIMEOUT")
	v.BindEnv("logging.level", "DESK_LOGGING_LEVEL", "DESK_LOG_LEVEL")
}

// readAndUnmarshalConfig reads the configuration file and unmarshals it
func readAndUnmarshalConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment variables only
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setupLogging configures the logging system based on the config
func setupLogging(config *Config, v *viper.Viper) error {
	logrusLevel, err := logrus.ParseLevel(config.Logging.Level)
	if err != nil {
		return fmt.Errorf("error parsing log level: %w", err)
	}

	logrus.SetLevel(logrusLevel)
	config.logger = newDeskLogger(defaultLogBufferSize)
	installLogBuffer(config.logger)

	switch strings.ToLower(config.Logging.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	default:
		logrus.WithFields(logrus.Fields{
			"format": config.Logging.Format,
		}).Warn("Unknown log format")
	}

	if logrusLevel >= logrus.DebugLevel {
		for key, value := range v.AllSettings() {
			if key == "server" {
				continue // holds the cookie secret
			}
			logrus.Debugf("Config '%s': %v", key, value)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.endpoint", DefaultAPIEndpoint)
	v.SetDefault("api.base", DefaultAPIBase)
	v.SetDefault("api.timeout", "15s")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "")

	v.SetDefault("session.init_timeout", "10s")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5230)
	v.SetDefault("server.secret", "")
	v.SetDefault("server.limits.read_timeout", "30s")
	v.SetDefault("server.limits.write_timeout", "0s")
	v.SetDefault("server.limits.idle_timeout", "120s")
	v.SetDefault("server.limits.auth_rate", 0.2)
	v.SetDefault("server.limits.auth_burst", 5)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("server.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors.allowed_headers", []string{"Authorization", "Content-Type", "X-Requested-With"})
	v.SetDefault("server.cors.max_age", 86400)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}
