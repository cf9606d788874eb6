package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the board, read from the environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Kafka    KafkaConfig
	Board    BoardConfig
	Workers  WorkerConfig
}

type ServerConfig struct {
	Port string
	Mode string // development | production
}

type DatabaseConfig struct {
	Driver string // mysql | postgres | sqlite
	DSN    string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

type StorageConfig struct {
	Backend   string // local | s3 | minio
	UploadDir string

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type BoardConfig struct {
	PageSize int
	// CommentOwnerCheck gates comment edit/delete behind CanModify.
	CommentOwnerCheck bool
}

type WorkerConfig struct {
	OutboxInterval    time.Duration
	ReconcileInterval time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "8080"),
			Mode: getEnv("APP_MODE", "development"),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "mysql"),
			DSN:    getEnv("DB_DSN", "user:password@tcp(127.0.0.1:3306)/board?charset=utf8mb4&parseTime=True"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", "secret-key"),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", "refresh-key"),
			AccessTTL:     getEnvAsDuration("JWT_ACCESS_TTL", 30*time.Minute),
			RefreshTTL:    getEnvAsDuration("JWT_REFRESH_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			Backend:        getEnv("STORAGE_BACKEND", "local"),
			UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
			S3Region:       getEnv("S3_REGION", ""),
			S3Bucket:       getEnv("S3_BUCKET", ""),
			S3AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			S3SecretKey:    getEnv("S3_SECRET_KEY", ""),
			S3Endpoint:     getEnv("S3_ENDPOINT", ""),
			MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
			MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
			MinioBucket:    getEnv("MINIO_BUCKET", "board-uploads"),
			MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		Kafka: KafkaConfig{
			Brokers: getEnvAsList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", "board.post.events"),
		},
		Board: BoardConfig{
			PageSize:          getEnvAsInt("BOARD_PAGE_SIZE", 10),
			CommentOwnerCheck: getEnvAsBool("COMMENT_OWNER_CHECK", false),
		},
		Workers: WorkerConfig{
			OutboxInterval:    getEnvAsDuration("OUTBOX_INTERVAL", time.Second),
			ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", 10*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
