package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config is built once at startup and passed explicitly into the services
// that need it. There is no other process-wide settings state.
type Config struct {
	Port string

	DBDriver string // "mysql" or "sqlite"
	DBDSN    string

	// GSTRateBasisPoints keeps the percentage integral: 18% -> 1800,
	// 2.5% -> 250. All tax math is integer paise.
	GSTRateBasisPoints int64
	MaxTables          int

	// OwnerPasswordHash is the bcrypt hash of the owner credential gating
	// cash-counter verify/reopen.
	OwnerPasswordHash string
}

// Load reads configuration from the environment. Call godotenv.Load first.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBDriver:           getEnv("DB_DRIVER", "mysql"),
		DBDSN:              os.Getenv("DB_DSN"),
		GSTRateBasisPoints: 1800,
		MaxTables:          25,
		OwnerPasswordHash:  os.Getenv("OWNER_PASSWORD_HASH"),
	}

	if v := os.Getenv("GST_RATE"); v != "" {
		bp, err := ParseGSTRate(v)
		if err != nil {
			return nil, err
		}
		cfg.GSTRateBasisPoints = bp
	}

	if v := os.Getenv("MAX_TABLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid MAX_TABLES %q", v)
		}
		cfg.MaxTables = n
	}

	return cfg, nil
}

// ParseGSTRate converts a percentage string such as "18" or "2.5" into
// basis points.
func ParseGSTRate(s string) (int64, error) {
	pct, err := strconv.ParseFloat(s, 64)
	if err != nil || pct < 0 || pct > 100 {
		return 0, fmt.Errorf("invalid GST_RATE %q", s)
	}
	return int64(math.Round(pct * 100)), nil
}

// InitDB opens the configured database.
func InitDB(cfg *Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case "sqlite":
		dsn := cfg.DBDSN
		if dsn == "" {
			dsn = "pos.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	case "mysql":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required for mysql")
		}
		return gorm.Open(mysql.Open(cfg.DBDSN), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
