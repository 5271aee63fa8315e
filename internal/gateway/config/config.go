package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	PlatformURL string
	SessionDSN  string
	SessionTTL  time.Duration
	Staging     StagingConfig
}

type StagingConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8082", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	platform := strings.TrimSpace(os.Getenv("PLATFORM_API_URL"))
	if platform == "" {
		platform = "http://localhost:8080"
	}

	return &Config{
		Port:        *port,
		Env:         env,
		PlatformURL: platform,
		SessionDSN:  strings.TrimSpace(os.Getenv("SESSION_STORE_PG_DSN")),
		SessionTTL:  resolveSessionTTL(),
		Staging:     loadStagingConfig(env),
	}, nil
}

func resolveSessionTTL() time.Duration {
	raw := strings.TrimSpace(os.Getenv("WIZARD_SESSION_TTL"))
	if raw == "" {
		return 2 * time.Hour
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 2 * time.Hour
	}
	return d
}

func loadStagingConfig(env string) StagingConfig {
	endpoint := resolveStagingEndpoint(env)
	return StagingConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("STAGING_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("STAGING_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("STAGING_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("STAGING_S3_BUCKET")), "buildsight-uploads"),
		UseSSL:    resolveStagingUseSSL(env),
	}
}

func resolveStagingEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("STAGING_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("STAGING_S3_ENDPOINT"))
}

func resolveStagingUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("STAGING_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
