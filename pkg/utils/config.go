package utils

import (
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	HTTPAddr      string
	FeedAddr      string
	UDPAddr       string
	GrpcAddr      string
	AdminUsername string
	AdminSecret   string
	ReviewAuthor  string
	LogLevel      string
	Env           string
	FeedHistory   int
	Broker        BrokerConfig
}

// BrokerConfig enables optional event forwarding. Empty addresses disable
// the corresponding sink.
type BrokerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisChannel  string
	AMQPURL       string
	AMQPQueue     string
}

func LoadAppConfig() AppConfig {
	return AppConfig{
		HTTPAddr:      getEnv("MOVIECAT_HTTP_ADDR", ":8080"),
		FeedAddr:      getEnv("MOVIECAT_FEED_ADDR", ":7070"),
		UDPAddr:       getEnv("MOVIECAT_UDP_ADDR", ":7071"),
		GrpcAddr:      getEnv("MOVIECAT_GRPC_ADDR", ":9090"),
		AdminUsername: getEnv("MOVIECAT_ADMIN_USERNAME", "admin"),
		// dev default (change for demo / production)
		AdminSecret:  getEnv("MOVIECAT_ADMIN_SECRET", "dev-secret-change-me"),
		ReviewAuthor: strings.ToLower(getEnv("MOVIECAT_REVIEW_AUTHOR", "supplied")),
		LogLevel:     getEnv("MOVIECAT_LOG_LEVEL", "info"),
		Env:          getEnv("MOVIECAT_ENV", "development"),
		FeedHistory:  getEnvInt("MOVIECAT_FEED_HISTORY", 50),
		Broker: BrokerConfig{
			RedisAddr:     os.Getenv("MOVIECAT_REDIS_ADDR"),
			RedisPassword: os.Getenv("MOVIECAT_REDIS_PASSWORD"),
			RedisChannel:  getEnv("MOVIECAT_REDIS_CHANNEL", "moviecatalog.events"),
			AMQPURL:       os.Getenv("MOVIECAT_AMQP_URL"),
			AMQPQueue:     getEnv("MOVIECAT_AMQP_QUEUE", "moviecatalog.events"),
		},
	}
}

// IsDevelopment reports whether human-readable logs should be used.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "" || strings.EqualFold(c.Env, "development")
}

type ClientConfig struct {
	BaseURL  string
	Username string
	Secret   string
	FeedAddr string
	UDPAddr  string
	GrpcAddr string
}

// LoadClientConfig reads the defaults used by the command line tools.
func LoadClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:  strings.TrimRight(getEnv("MOVIECAT_BASE_URL", "http://localhost:8080"), "/"),
		Username: getEnv("MOVIECAT_ADMIN_USERNAME", "admin"),
		Secret:   os.Getenv("MOVIECAT_ADMIN_SECRET"),
		FeedAddr: getEnv("MOVIECAT_FEED_ADDR", "localhost:7070"),
		UDPAddr:  getEnv("MOVIECAT_UDP_ADDR", "localhost:7071"),
		GrpcAddr: getEnv("MOVIECAT_GRPC_ADDR", "localhost:9090"),
	}
}

// if parse fails, fall back to def
func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
