package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver      string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBSSLMode     string
	RedisHost     string
	RedisPort     string
	SessionSecret string
	GinMode       string
	LogLevel      string
	Port          string
	OpenAIAPIKey  string

	// AllowResubmission lets a completed assignment accept newer submissions.
	AllowResubmission bool
	ExportWorkers     int

	DistributionBaseURL       string
	DistributionLibrary       string
	DistributionUseOrgFolders bool
	DistributionS3Bucket      string
	AWSRegion                 string
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		DBDriver:      getEnv("DB_DRIVER", "mysql"),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBUser:        getEnv("DB_USER", "reportuser"),
		DBPassword:    getEnv("DB_PASSWORD", "reportpassword"),
		DBName:        getEnv("DB_NAME", "report_portal"),
		DBSSLMode:     getEnv("DB_SSLMODE", "disable"),
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		GinMode:       getEnv("GIN_MODE", "debug"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Port:          getEnv("PORT", "8080"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),

		AllowResubmission: getEnvBool("ALLOW_RESUBMISSION", true),
		ExportWorkers:     getEnvInt("EXPORT_WORKERS", 4),

		DistributionBaseURL:       getEnv("DISTRIBUTION_BASE_URL", "https://vinatex.sharepoint.com/sites/reports"),
		DistributionLibrary:       getEnv("DISTRIBUTION_LIBRARY", "Documents/Reports"),
		DistributionUseOrgFolders: getEnvBool("DISTRIBUTION_USE_ORG_FOLDERS", true),
		DistributionS3Bucket:      getEnv("DISTRIBUTION_S3_BUCKET", ""),
		AWSRegion:                 getEnv("AWS_REGION", ""),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
