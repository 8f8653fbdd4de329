package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Draw     DrawConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// DrawConfig holds draw-engine tuning and the rate overlay policy
type DrawConfig struct {
	// MaxClaimAttempts bounds the retry loop when concurrent draws contend
	// for the same ticket slot.
	MaxClaimAttempts int
	// RateEscalation raises the effective profit rate once the consumed
	// fraction of a pool crosses each threshold. Operator policy, not engine
	// logic: an empty list disables escalation entirely.
	RateEscalation []RateStep
}

// RateStep is one escalation step of the rate overlay
type RateStep struct {
	Threshold float64 // consumed fraction of the pool, 0..1
	Step      float64 // added to the effective profit rate
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "kuji")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Draw.MaxClaimAttempts", 5)
	viper.SetDefault("Draw.RateEscalation", []map[string]interface{}{
		{"threshold": 0.5, "step": 0.25},
		{"threshold": 0.8, "step": 0.5},
	})
	viper.SetDefault("LogLevel", "info")
}
