/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the escrow-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort              string `mapstructure:"SERVER_PORT"`
	DatabaseURL             string `mapstructure:"DATABASE_URL"`
	RedisURL                string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix    string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL             string `mapstructure:"RABBITMQ_URL"`
	ChainAPIBaseURL         string `mapstructure:"CHAIN_API_BASE_URL"`
	ChainAPIKey             string `mapstructure:"CHAIN_API_KEY"`
	JWTSecret               string `mapstructure:"JWT_SECRET"`
	CustodyPrincipal        string `mapstructure:"CUSTODY_PRINCIPAL"`
	PlatformPrincipal       string `mapstructure:"PLATFORM_PRINCIPAL"`
	FeeRateNumerator        int64  `mapstructure:"FEE_RATE_NUMERATOR"`
	FeeRateDenominator      int64  `mapstructure:"FEE_RATE_DENOMINATOR"`
	CoolingPeriodBlocks     int64  `mapstructure:"COOLING_PERIOD_BLOCKS"`
	ConfirmRateLimitPerMin  int    `mapstructure:"CONFIRM_RATE_LIMIT_PER_MINUTE"`
	LocalClockBlockInterval int    `mapstructure:"LOCAL_CLOCK_BLOCK_INTERVAL_SECONDS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("CUSTODY_PRINCIPAL", "escrow.custody")
	viper.SetDefault("PLATFORM_PRINCIPAL", "escrow.platform")
	viper.SetDefault("FEE_RATE_NUMERATOR", 5)
	viper.SetDefault("FEE_RATE_DENOMINATOR", 1000)
	viper.SetDefault("COOLING_PERIOD_BLOCKS", 200)
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "escrow:rate_limit")
	viper.SetDefault("CONFIRM_RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("LOCAL_CLOCK_BLOCK_INTERVAL_SECONDS", 10)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "ESCROW_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CHAIN_API_BASE_URL")
	_ = viper.BindEnv("CHAIN_API_KEY")
	_ = viper.BindEnv("JWT_SECRET", "JWT_SECRET", "ESCROW_SERVICE_JWT_SECRET")
	_ = viper.BindEnv("CUSTODY_PRINCIPAL")
	_ = viper.BindEnv("PLATFORM_PRINCIPAL")
	_ = viper.BindEnv("FEE_RATE_NUMERATOR")
	_ = viper.BindEnv("FEE_RATE_DENOMINATOR")
	_ = viper.BindEnv("COOLING_PERIOD_BLOCKS")
	_ = viper.BindEnv("CONFIRM_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("LOCAL_CLOCK_BLOCK_INTERVAL_SECONDS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	config.JWTSecret = strings.TrimSpace(config.JWTSecret)
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "escrow:rate_limit"
	}
	config.CustodyPrincipal = strings.TrimSpace(config.CustodyPrincipal)
	if config.CustodyPrincipal == "" {
		config.CustodyPrincipal = "escrow.custody"
	}
	config.PlatformPrincipal = strings.TrimSpace(config.PlatformPrincipal)
	if config.PlatformPrincipal == "" {
		config.PlatformPrincipal = "escrow.platform"
	}

	if config.FeeRateNumerator < 0 {
		log.Printf("level=warn component=config msg=\"negative fee numerator configured; coercing to zero\" numerator=%d", config.FeeRateNumerator)
		config.FeeRateNumerator = 0
	}
	if config.FeeRateDenominator <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive fee denominator configured; using default\" denominator=%d", config.FeeRateDenominator)
		config.FeeRateDenominator = 1000
	}
	if config.FeeRateNumerator > config.FeeRateDenominator {
		log.Printf("level=warn component=config msg=\"fee numerator exceeds denominator; capping at denominator\" numerator=%d denominator=%d",
			config.FeeRateNumerator, config.FeeRateDenominator)
		config.FeeRateNumerator = config.FeeRateDenominator
	}

	if config.CoolingPeriodBlocks < 0 {
		log.Printf("level=warn component=config msg=\"negative cooling period configured; using default\" blocks=%d", config.CoolingPeriodBlocks)
		config.CoolingPeriodBlocks = 200
	}
	if config.ConfirmRateLimitPerMin < 0 {
		config.ConfirmRateLimitPerMin = 0
	}
	if config.LocalClockBlockInterval <= 0 {
		config.LocalClockBlockInterval = 10
	}

	return
}
