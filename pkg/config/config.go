package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	TransportLog   = "log"
	TransportKafka = "kafka"
	TransportSMS   = "sms"
)

type Config struct {
	Server       ServerConfig
	Log          LogConfig
	Store        StoreConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Notification NotificationConfig
	SMS          SMSConfig
	Taxonomy     TaxonomyConfig
	Retention    RetentionConfig
}

type ServerConfig struct {
	Port            int
	GinMode         string
	ShutdownTimeout time.Duration
	AllowOrigins    []string
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type LogConfig struct {
	Mode     string
	HashSalt string
}

type StoreConfig struct {
	Backend         string
	OutbreakBackend string
}

type DatabaseConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MigrationsDir string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers            []string
	TopicReports       string
	TopicNotifications string
	NumPartitions      int
	ConsumerGroup      string
	NotifierGroup      string
	IngestEnabled      bool
}

type NotificationConfig struct {
	Transport     string
	SendTimeout   time.Duration
	Workers       int
	QueueSize     int
	SubscriberCap int
	WorkerCap     int
}

// SMSConfig points at a Twilio-compatible messages endpoint
type SMSConfig struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
}

type TaxonomyConfig struct {
	CatalogPath string
	WorkersPath string
}

type RetentionConfig struct {
	SweepInterval      time.Duration
	ReevaluateInterval time.Duration
	ReevaluateParallel int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:            getEnvAsInt("HTTP_PORT", 8080),
			GinMode:         getEnv("GIN_MODE", "release"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowOrigins:    getEnvAsList("CORS_ALLOW_ORIGINS", ""),
		},
		Log: LogConfig{
			Mode:     getEnv("LOG_MODE", "dev"),
			HashSalt: getEnv("LOG_HASH_SALT", ""),
		},
		Store: StoreConfig{
			Backend:         strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
			OutbreakBackend: strings.ToLower(getEnv("OUTBREAK_BACKEND", BackendMemory)),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnvAsInt("DB_PORT", 5432),
			User:          getEnv("DB_USER", "symptom_user"),
			Password:      getEnv("DB_PASSWORD", "symptom_pass"),
			DBName:        getEnv("DB_NAME", "symptom_db"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:            getEnvAsList("KAFKA_BROKERS", "localhost:9092"),
			TopicReports:       getEnv("KAFKA_TOPIC_REPORTS", "symptom.reports"),
			TopicNotifications: getEnv("KAFKA_TOPIC_NOTIFICATIONS", "symptom.notifications"),
			NumPartitions:      getEnvAsInt("KAFKA_NUM_PARTITIONS", 10),
			ConsumerGroup:      getEnv("KAFKA_CONSUMER_GROUP", "symptom-engine"),
			NotifierGroup:      getEnv("KAFKA_NOTIFIER_GROUP", "symptom-notifier"),
			IngestEnabled:      getEnvAsBool("KAFKA_INGEST_ENABLED", false),
		},
		Notification: NotificationConfig{
			Transport:     strings.ToLower(getEnv("NOTIFY_TRANSPORT", TransportLog)),
			SendTimeout:   getEnvAsDuration("NOTIFY_SEND_TIMEOUT", 5*time.Second),
			Workers:       getEnvAsInt("NOTIFY_WORKERS", 8),
			QueueSize:     getEnvAsInt("NOTIFY_QUEUE_SIZE", 1000),
			SubscriberCap: getEnvAsInt("NOTIFY_SUBSCRIBER_CAP", 100),
			WorkerCap:     getEnvAsInt("NOTIFY_WORKER_CAP", 2),
		},
		SMS: SMSConfig{
			BaseURL:    getEnv("SMS_BASE_URL", "https://api.twilio.com/2010-04-01"),
			AccountSID: getEnv("SMS_ACCOUNT_SID", ""),
			AuthToken:  getEnv("SMS_AUTH_TOKEN", ""),
			From:       getEnv("SMS_FROM", ""),
		},
		Taxonomy: TaxonomyConfig{
			CatalogPath: getEnv("TAXONOMY_CATALOG_PATH", ""),
			WorkersPath: getEnv("HEALTH_WORKERS_PATH", ""),
		},
		Retention: RetentionConfig{
			SweepInterval:      getEnvAsDuration("RETENTION_SWEEP_INTERVAL", time.Hour),
			ReevaluateInterval: getEnvAsDuration("REEVALUATE_INTERVAL", 15*time.Minute),
			ReevaluateParallel: getEnvAsInt("REEVALUATE_PARALLEL", 4),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects settings the engine cannot start with
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Store.OutbreakBackend {
	case BackendMemory, BackendPostgres, BackendRedis:
	default:
		return fmt.Errorf("invalid OUTBREAK_BACKEND %q", c.Store.OutbreakBackend)
	}
	switch c.Notification.Transport {
	case TransportLog, TransportKafka, TransportSMS:
	default:
		return fmt.Errorf("invalid NOTIFY_TRANSPORT %q", c.Notification.Transport)
	}
	if c.Notification.SubscriberCap <= 0 || c.Notification.WorkerCap <= 0 {
		return fmt.Errorf("notification caps must be positive")
	}
	if c.Notification.Workers <= 0 || c.Notification.QueueSize <= 0 {
		return fmt.Errorf("notification workers and queue size must be positive")
	}
	if c.Notification.SendTimeout <= 0 {
		return fmt.Errorf("NOTIFY_SEND_TIMEOUT must be positive")
	}
	if c.Notification.Transport == TransportSMS && (c.SMS.AccountSID == "" || c.SMS.AuthToken == "" || c.SMS.From == "") {
		return fmt.Errorf("sms transport requires SMS_ACCOUNT_SID, SMS_AUTH_TOKEN and SMS_FROM")
	}
	if (c.Notification.Transport == TransportKafka || c.Kafka.IngestEnabled) && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
