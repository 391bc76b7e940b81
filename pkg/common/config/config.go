package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers      []string
	KafkaGroupID      string
	CaptureTopic      string
	ProcessedTopic    string
	ConsumerEnabled   bool
	ProcessorCacheTTL time.Duration

	// ContaHub (upstream POS)
	ContaHubBaseURL   string
	ContaHubEmail     string
	ContaHubPassword  string
	ContaHubEmpID     string
	ContaHubTimeout   time.Duration
	ContaHubRetries   int
	ContaHubRetryWait time.Duration

	// Sympla (ticketing)
	SymplaBaseURL string
	SymplaToken   string
	SymplaTimeout time.Duration

	// Pipeline
	BarID             int
	ReportCatalogPath string
	BatchPause        time.Duration
	ReportPause       time.Duration
	DatePause         time.Duration
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 60*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "zykor"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "zykor123"),
		PostgresDB:       getEnv("POSTGRES_DB", "zykor"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID:      getEnv("KAFKA_GROUP_ID", "zykor-pipeline"),
		CaptureTopic:      getEnv("CAPTURE_TOPIC", "contahub-raw-captured"),
		ProcessedTopic:    getEnv("PROCESSED_TOPIC", "contahub-raw-processed"),
		ConsumerEnabled:   getBoolEnv("CAPTURE_CONSUMER_ENABLED", false),
		ProcessorCacheTTL: getDuration("PROCESSOR_CACHE_TTL", 24*time.Hour),

		ContaHubBaseURL:   getEnv("CONTAHUB_BASE_URL", "https://sp.contahub.com"),
		ContaHubEmail:     getEnv("CONTAHUB_EMAIL", ""),
		ContaHubPassword:  getEnv("CONTAHUB_PASSWORD", ""),
		ContaHubEmpID:     getEnv("CONTAHUB_EMP_ID", ""),
		ContaHubTimeout:   getDuration("CONTAHUB_TIMEOUT", 45*time.Second),
		ContaHubRetries:   getIntEnv("CONTAHUB_RETRIES", 3),
		ContaHubRetryWait: getDuration("CONTAHUB_RETRY_WAIT", 2*time.Second),

		SymplaBaseURL: getEnv("SYMPLA_BASE_URL", "https://api.sympla.com.br/public/v1.5.1"),
		SymplaToken:   getEnv("SYMPLA_TOKEN", ""),
		SymplaTimeout: getDuration("SYMPLA_TIMEOUT", 30*time.Second),

		BarID:             getIntEnv("BAR_ID", 0),
		ReportCatalogPath: getEnv("REPORT_CATALOG_PATH", ""),
		BatchPause:        getDuration("BATCH_PAUSE", 100*time.Millisecond),
		ReportPause:       getDuration("REPORT_PAUSE", 1*time.Second),
		DatePause:         getDuration("DATE_PAUSE", 2*time.Second),
	}
}

// ContaHubConfig is the slice of Config the POS client needs.
type ContaHubConfig struct {
	BaseURL   string
	Email     string
	Password  string
	EmpID     string
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

func (c *Config) ContaHub() *ContaHubConfig {
	return &ContaHubConfig{
		BaseURL:   c.ContaHubBaseURL,
		Email:     c.ContaHubEmail,
		Password:  c.ContaHubPassword,
		EmpID:     c.ContaHubEmpID,
		Timeout:   c.ContaHubTimeout,
		Retries:   c.ContaHubRetries,
		RetryWait: c.ContaHubRetryWait,
	}
}

// SymplaConfig is the slice of Config the ticketing client needs.
type SymplaConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

func (c *Config) Sympla() *SymplaConfig {
	return &SymplaConfig{
		BaseURL: c.SymplaBaseURL,
		Token:   c.SymplaToken,
		Timeout: c.SymplaTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
