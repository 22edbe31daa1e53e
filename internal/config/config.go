package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultBaseURL is the accounting backend used when nothing overrides it.
const DefaultBaseURL = "http://127.0.0.1:8000/api/v1"

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	API struct {
		BaseURL string
		Timeout time.Duration
	}
	Database struct {
		Path string
	}
	Log struct {
		Level string
	}
	Dashboard struct {
		RecentLimit int
	}
	Archive struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
	Fake struct {
		Addr          string
		JWTSecret     string
		AdminUser     string
		AdminPassword string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEDGERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.baseurl", DefaultBaseURL)
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("database.path", "data/ledgerdesk.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("dashboard.recentlimit", 5)
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.keyprefix", "reports")
	v.SetDefault("archive.region", "us-east-1")
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("aws.profile", "")
	v.SetDefault("fake.addr", "127.0.0.1:8000")
	v.SetDefault("fake.jwtsecret", "")
	v.SetDefault("fake.adminuser", "admin")
	v.SetDefault("fake.adminpassword", "")
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultBaseURL
	}
	if cfg.API.Timeout < 0 {
		return Config{}, fmt.Errorf("api timeout must not be negative")
	}
	if cfg.Dashboard.RecentLimit <= 0 {
		cfg.Dashboard.RecentLimit = 5
	}
	return cfg, nil
}
