package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"cardforge/internal/export"
)

type Config struct {
	Port       string
	Env        string
	CardsDir   string
	PresetsDir string
	HistoryDir string
	UserName   string

	LLMProvider string // "gemini" or "fake"
	LLMModel    string

	Artifact ArtifactConfig
}

type ArtifactConfig struct {
	Enabled bool
	S3      export.S3Config
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

	return &Config{
		Port:        *port,
		Env:         env,
		CardsDir:    firstNonEmpty(strings.TrimSpace(os.Getenv("CARDS_DIR")), "./cards"),
		PresetsDir:  firstNonEmpty(strings.TrimSpace(os.Getenv("PRESETS_DIR")), "./presets"),
		HistoryDir:  firstNonEmpty(strings.TrimSpace(os.Getenv("HISTORY_DIR")), "./history"),
		UserName:    firstNonEmpty(strings.TrimSpace(os.Getenv("USER_NAME")), "User"),
		LLMProvider: firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_PROVIDER")), "fake"),
		LLMModel:    firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_MODEL")), "gemini-2.0-flash"),
		Artifact:    loadArtifactConfig(env),
	}, nil
}

func loadArtifactConfig(env string) ArtifactConfig {
	endpoint := resolveArtifactEndpoint(env)
	return ArtifactConfig{
		Enabled: endpoint != "",
		S3: export.S3Config{
			Endpoint:  endpoint,
			Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("EXPORT_S3_REGION")), "us-east-1"),
			AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("EXPORT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
			SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("EXPORT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
			Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("EXPORT_S3_BUCKET")), "cardforge-exports"),
			UseSSL:    resolveArtifactUseSSL(env),
		},
	}
}

func resolveArtifactEndpoint(env string) string {
	if strings.EqualFold(env, "local") {
		return strings.TrimSpace(os.Getenv("EXPORT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("EXPORT_S3_ENDPOINT"))
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(env, "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("EXPORT_S3_USE_SSL"))
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
