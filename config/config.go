package config

import (
	logger "github.com/Bparsons0904/goLogger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion        string `mapstructure:"GENERAL_VERSION"`
	Environment           string `mapstructure:"ENVIRONMENT"`
	ServerPort            int    `mapstructure:"SERVER_PORT"`
	DatabaseHost          string `mapstructure:"DB_HOST"`
	DatabasePort          int    `mapstructure:"DB_PORT"`
	DatabaseName          string `mapstructure:"DB_NAME"`
	DatabaseUser          string `mapstructure:"DB_USER"`
	DatabasePassword      string `mapstructure:"DB_PASSWORD"`
	DatabaseCacheAddress  string `mapstructure:"DB_CACHE_ADDRESS"`
	DatabaseCachePort     int    `mapstructure:"DB_CACHE_PORT"`
	CorsAllowOrigins      string `mapstructure:"CORS_ALLOW_ORIGINS"`
	AuthJWTSecret         string `mapstructure:"AUTH_JWT_SECRET"`
	SchedulerEnabled      bool   `mapstructure:"SCHEDULER_ENABLED"`
	StatusSweepMinutes    int    `mapstructure:"STATUS_SWEEP_MINUTES"`
	ListingDefaultPerPage int    `mapstructure:"LISTING_DEFAULT_PER_PAGE"`
	CandidateSampleSize   int    `mapstructure:"CANDIDATE_SAMPLE_SIZE"`
}

const (
	DefaultStatusSweepMinutes    = 5
	DefaultListingPerPage        = 15
	DefaultCandidateSampleSize   = 3
	DefaultSchedulerEnabledValue = true
)

var envVars = []string{
	"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_CACHE_ADDRESS", "DB_CACHE_PORT",
	"CORS_ALLOW_ORIGINS", "AUTH_JWT_SECRET",
	"SCHEDULER_ENABLED", "STATUS_SWEEP_MINUTES",
	"LISTING_DEFAULT_PER_PAGE", "CANDIDATE_SAMPLE_SIZE",
}

var ConfigInstance Config

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()
	viper.SetDefault("SCHEDULER_ENABLED", DefaultSchedulerEnabledValue)
	viper.SetDefault("STATUS_SWEEP_MINUTES", DefaultStatusSweepMinutes)
	viper.SetDefault("LISTING_DEFAULT_PER_PAGE", DefaultListingPerPage)
	viper.SetDefault("CANDIDATE_SAMPLE_SIZE", DefaultCandidateSampleSize)

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := Validate(config, log); err != nil {
		return Config{}, err
	}

	ConfigInstance = config
	log.Info(
		"Successfully initialized config",
		"environment", config.Environment,
		"port", config.ServerPort,
		"schedulerEnabled", config.SchedulerEnabled,
	)
	return config, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func Validate(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error("Fatal error: invalid server port", "port", config.ServerPort)
	}

	if config.AuthJWTSecret == "" {
		return log.ErrMsg("Fatal error: AUTH_JWT_SECRET is required")
	}

	if config.ListingDefaultPerPage <= 0 {
		return log.Error(
			"Fatal error: LISTING_DEFAULT_PER_PAGE must be positive",
			"perPage", config.ListingDefaultPerPage,
		)
	}

	if config.CandidateSampleSize <= 0 {
		return log.Error(
			"Fatal error: CANDIDATE_SAMPLE_SIZE must be positive",
			"sampleSize", config.CandidateSampleSize,
		)
	}

	if config.SchedulerEnabled && config.StatusSweepMinutes <= 0 {
		return log.Error(
			"Fatal error: STATUS_SWEEP_MINUTES must be positive when the scheduler is enabled",
			"minutes", config.StatusSweepMinutes,
		)
	}

	return nil
}
