package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider names accepted by ANALYSIS_PROVIDER.
const (
	ProviderMock   = "mock"
	ProviderHTTP   = "http"
	ProviderOpenAI = "openai"
)

// Config holds application configuration.
type Config struct {
	Env             string
	Port            string
	CORSAllowOrigin []string
	DatabaseURL     string

	AnalysisProvider string
	MockDelay        time.Duration
	AnalyzeAPIURL    string
	OpenAIAPIKey     string
	LLMModel         string
	AnalysisTimeout  time.Duration

	CacheTTL       time.Duration
	SessionIdleTTL time.Duration

	SubmitRateLimitRPS   float64
	SubmitRateLimitBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	provider, _ := NormalizeProvider(getEnv("ANALYSIS_PROVIDER", ProviderMock))

	cfg := Config{
		Env:                  env,
		Port:                 getEnv("PORT", "8080"),
		CORSAllowOrigin:      splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		AnalysisProvider:     provider,
		MockDelay:            getDuration("MOCK_DELAY", 2*time.Second),
		AnalyzeAPIURL:        getEnv("ANALYZE_API_URL", ""),
		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		LLMModel:             getEnv("LLM_MODEL", "gpt-4o-mini"),
		AnalysisTimeout:      getDuration("ANALYSIS_TIMEOUT", 90*time.Second),
		CacheTTL:             getDuration("CACHE_TTL", 24*time.Hour),
		SessionIdleTTL:       getDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SubmitRateLimitRPS:   getFloat("RATE_LIMIT_SUBMIT_RPS", 0.5),
		SubmitRateLimitBurst: getInt("RATE_LIMIT_SUBMIT_BURST", 5),
	}

	if provider == ProviderHTTP && cfg.AnalyzeAPIURL == "" {
		log.Printf("ANALYZE_API_URL is required for the http provider")
	}
	if provider == ProviderOpenAI && cfg.OpenAIAPIKey == "" {
		log.Printf("OPENAI_API_KEY is required for the openai provider")
	}
	return cfg
}

// IsProduction reports whether cookies should be marked secure.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("config %s invalid duration %q, using %s", key, raw, def)
	return def
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return v
}

func getFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float %q, using %g", key, raw, def)
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// NormalizeProvider maps a provider name or alias to its canonical value.
// The second result is false for names that are not recognized.
func NormalizeProvider(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "http", "remote":
		return ProviderHTTP, true
	case "openai", "llm":
		return ProviderOpenAI, true
	case "mock", "":
		return ProviderMock, true
	default:
		return ProviderMock, false
	}
}
