package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int
	LogMode   string

	DBDriver   string // postgres, sqlite or mysql
	DBDSN      string
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	StorageDriver string // local or gcs
	StorageRoot   string
	PublicBaseURL string
	GCSBucket     string
	GCSCDNDomain  string

	CertificateFont      string // optional TTF used on rendered certificates
	CertificateSweepCron string // empty disables the sweep
	CORSOrigins          string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = FromEnv()

	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.DBDriver == "sqlite" && AppConfig.DBDSN == "code212.db" {
		log.Println("Warning: Using default sqlite database file. Set DB_DSN in your environment.")
	}
}

// FromEnv reads the configuration without touching .env files.
func FromEnv() *Config {
	driver := strings.ToLower(getEnv("DB_DRIVER", "postgres"))
	dsnDefault := ""
	if driver == "sqlite" {
		dsnDefault = "code212.db"
	}

	return &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),
		LogMode:   getEnv("LOG_MODE", "dev"),

		DBDriver:   driver,
		DBDSN:      getEnv("DB_DSN", dsnDefault),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "code212"),
		DBPort:     getEnv("DB_PORT", "5432"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
		StorageRoot:   getEnv("STORAGE_ROOT", "./uploads"),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:3000"), "/"),
		GCSBucket:     getEnv("GCS_BUCKET", ""),
		GCSCDNDomain:  getEnv("GCS_CDN_DOMAIN", ""),

		CertificateFont:      getEnv("CERTIFICATE_FONT", ""),
		CertificateSweepCron: getEnv("CERTIFICATE_SWEEP_CRON", ""),
		CORSOrigins:          getEnv("CORS_ORIGINS", "*"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
