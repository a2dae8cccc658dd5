package config

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	KeyHTTPTimeout  = "http.timeout"
	KeyBrowserType  = "browser.type"
	KeyLogLevel     = "log.level"
	KeyOutputFormat = "output.format"
)

func SetDefaults() {
	viper.SetDefault(KeyHTTPTimeout, time.Duration(0)) // no timeout beyond the platform default
	viper.SetDefault(KeyBrowserType, "auto")
	viper.SetDefault(KeyLogLevel, "warn")
	viper.SetDefault(KeyOutputFormat, "text")
}

// Config is a snapshot of the settings the app reads at startup
type Config struct {
	HTTPTimeout  time.Duration
	BrowserType  string
	LogLevel     logrus.Level
	OutputFormat string
}

// Load reads the current viper settings. An unknown log level falls back to warn.
func Load() Config {
	level, err := logrus.ParseLevel(viper.GetString(KeyLogLevel))
	if err != nil {
		logrus.WithError(err).Warn("Invalid log level, using warn")
		level = logrus.WarnLevel
	}

	return Config{
		HTTPTimeout:  viper.GetDuration(KeyHTTPTimeout),
		BrowserType:  viper.GetString(KeyBrowserType),
		LogLevel:     level,
		OutputFormat: viper.GetString(KeyOutputFormat),
	}
}
