package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	TorPath             string
	TorSocksPort        int
	TorStartupTimeoutMs int
	ChromeBin           string

	MaxSessionAttempts int
	RetryBaseDelayMs   int
	ActionTimeoutMs    int
	PageSettleMs       int

	CacheDir      string
	CSVOutputPath string

	// Scenario defaults, all rates in percent.
	DownPaymentRate     float64
	ClosingCostRate     float64
	ImmediateRepairRate float64
	FurnishingCost      float64
	MortgageRate        float64
	MortgageYears       int
	MonthlyUtilities    float64
	CapexRate           float64
	MaintenanceRate     float64
	PropertyTaxRate     float64
	ManagementRate      float64
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "analyzer"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "analyzer123"),
		PostgresDB:       getEnv("POSTGRES_DB", "realestate_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		TorPath:             getEnv("TOR_PATH", "tor"),
		TorSocksPort:        getEnvInt("TOR_SOCKS_PORT", 9050),
		TorStartupTimeoutMs: getEnvInt("TOR_STARTUP_TIMEOUT_MS", 90000),
		ChromeBin:           getEnv("CHROME_BIN", ""),

		MaxSessionAttempts: getEnvInt("MAX_SESSION_ATTEMPTS", 10),
		RetryBaseDelayMs:   getEnvInt("RETRY_BASE_DELAY_MS", 2000),
		ActionTimeoutMs:    getEnvInt("ACTION_TIMEOUT_MS", 10000),
		PageSettleMs:       getEnvInt("PAGE_SETTLE_MS", 4000),

		CacheDir:      getEnv("CACHE_DIR", "./cache"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/scenarios.csv"),

		DownPaymentRate:     getEnvFloat("DOWN_PAYMENT_RATE", 5),
		ClosingCostRate:     getEnvFloat("CLOSING_COST_RATE", 3),
		ImmediateRepairRate: getEnvFloat("IMMEDIATE_REPAIR_RATE", 3),
		FurnishingCost:      getEnvFloat("FURNISHING_COST", 10000),
		MortgageRate:        getEnvFloat("MORTGAGE_RATE", 3.23),
		MortgageYears:       getEnvInt("MORTGAGE_YEARS", 30),
		MonthlyUtilities:    getEnvFloat("MONTHLY_UTILITIES", 300),
		CapexRate:           getEnvFloat("CAPEX_RATE", 1.25),
		MaintenanceRate:     getEnvFloat("MAINTENANCE_RATE", 0.5),
		PropertyTaxRate:     getEnvFloat("PROPERTY_TAX_RATE", 0.83),
		ManagementRate:      getEnvFloat("MANAGEMENT_RATE", 10),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
