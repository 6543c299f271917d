package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     string
	LogLevel string
	LogJSON  bool

	StoreDriver   string
	MongoURI      string
	MongoDatabase string
	DBUser        string
	DBPassword    string
	DBHost        string
	DBPort        string
	DBName        string

	JWTSecret string
	TokenTTL  time.Duration
	RedisURL  string

	RabbitMQURL     string
	OrderExchange   string
	OrderQueue      string
	DeadLetterQueue string
	MaxPriority     int

	CORSOrigins     []string
	DeliveryFee     float64
	OrderPriceCheck bool
	AuthRateLimit   float64
	AuthRateBurst   int
	RequestTimeout  time.Duration
}

// IsProduction reports whether error details must be hidden from clients.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:      strings.ToLower(getEnv("APP_ENV", "development")),
		Port:     getEnv("PORT", "5000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  strings.ToLower(getEnv("LOG_FORMAT", "json")) == "json",

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "mongo")),
		MongoURI:      getEnvFromFile("MONGODB_URI_FILE", "MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGODB_DATABASE", "mach_lagbe"),
		DBUser:        getEnv("DB_USER", "root"),
		DBPassword:    getEnvFromFile("DB_PASSWORD_FILE", "DB_PASSWORD", ""),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "3306"),
		DBName:        getEnv("DB_NAME", "mach_lagbe"),

		JWTSecret: getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", "secret"),
		TokenTTL:  getDuration("TOKEN_TTL", 7*24*time.Hour),
		RedisURL:  getEnv("REDIS_URL", ""),

		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		OrderExchange:   getEnv("ORDER_EXCHANGE", "orders_exchange"),
		OrderQueue:      getEnv("ORDER_QUEUE", "orders_queue"),
		DeadLetterQueue: getEnv("DEAD_LETTER_QUEUE", "dead_letter_queue"),
		MaxPriority:     getInt("MAX_PRIORITY", 10),

		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		DeliveryFee:     getFloat("DELIVERY_FEE", 50),
		OrderPriceCheck: getBool("ORDER_PRICE_CHECK", false),
		AuthRateLimit:   getFloat("AUTH_RATE_LIMIT", 10),
		AuthRateBurst:   getInt("AUTH_RATE_BURST", 20),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
