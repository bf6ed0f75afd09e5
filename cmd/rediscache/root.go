package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davicafu/rediscache/internal/config"
	"github.com/davicafu/rediscache/pkg/logger"
)

var (
	// Global flags.
	configFile string
	logLevel   string
	driver     string
)

var rootCmd = &cobra.Command{
	Use:   "rediscache",
	Short: "Redis-backed cache backend with an HTTP admin surface",
	Long: `rediscache stores opaque payloads in Redis with a lifetime, a write
timestamp and an optional infinite TTL.

Configuration is read from CACHE_* environment variables and, optionally,
from a YAML file whose "cache:" section overrides them.

Examples:
  # Run the HTTP service
  rediscache serve

  # Store and read an entry
  rediscache set greeting "hola" --lifetime 60
  rediscache get greeting

  # Flush the configured database
  rediscache clean --mode all`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(loadedLogLevel())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Logger().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (cache: section)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&driver, "driver", "", "store driver (redis, memory); overrides CACHE_DRIVER")
}

func loadedLogLevel() string {
	if logLevel != "" {
		return logLevel
	}
	return config.LoadConfig().LogLevel
}

// loadConfig combina env, fichero y flags, en ese orden.
func loadConfig() (*config.Config, error) {
	cfg := config.LoadConfig()
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	}
	if driver != "" {
		cfg.CacheDriver = driver
	}
	logger.Logger().Debug("config loaded",
		zap.String("driver", cfg.CacheDriver),
		zap.String("host", cfg.Cache.Host),
		zap.Int("port", cfg.Cache.Port),
		zap.Int("db", cfg.Cache.DB),
	)
	return cfg, nil
}
