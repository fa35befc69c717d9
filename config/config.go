// Package config provides configuration for the moderation gateway.
package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultSystemPrompt is the governance prompt seeded as the first turn of
// every session. The rules mirror the reference assistant policy.
const DefaultSystemPrompt = "Você é um assistente financeiro responsável, objetivo e seguro. " +
	"Regras: " +
	"1) Não forneça conselhos médicos, legais, violentos, discriminatórios ou instruções perigosas. " +
	"2) Não dê recomendações financeiras personalizadas; ofereça informações gerais, riscos e incentive consulta a profissionais. " +
	"3) Recuse solicitações que envolvam fraude, hacking, conteúdo adulto explícito, ódio, assédio ou auto/heteroagressão. " +
	"4) Seja claro, educado e cite riscos, limitações e pressupostos. " +
	"5) Se um pedido for sensível, explique brevemente por que não pode atender e ofereça alternativas seguras."

// Config holds the gateway configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Completion service
	CompletionBaseURL     string
	CompletionAPIKey      string
	CompletionModel       string
	CompletionTemperature float64
	CompletionMaxTokens   int
	CompletionTimeout     time.Duration

	// Moderation service (optional; absent when endpoint or key is empty)
	ModerationEndpoint   string
	ModerationAPIKey     string
	ModerationTimeout    time.Duration
	ModerationFailClosed bool

	// Audit ingestion (optional; absent when host or keys are empty)
	AuditHost        string
	AuditPublicKey   string
	AuditSecretKey   string
	AuditTraceName   string
	AuditTimeout     time.Duration
	AuditMaxInflight int64

	// Input policy
	MaxInputLength    int
	RateLimitCooldown time.Duration
	SystemPrompt      string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort: getEnvInt("HTTP_PORT", 8080),

		CompletionBaseURL:     getEnv("COMPLETION_BASE_URL", "https://api.openai.com/v1"),
		CompletionAPIKey:      getEnv("COMPLETION_API_KEY", ""),
		CompletionModel:       getEnv("COMPLETION_MODEL", "gpt-3.5-turbo"),
		CompletionTemperature: getEnvFloat("COMPLETION_TEMPERATURE", 0.4),
		CompletionMaxTokens:   getEnvInt("COMPLETION_MAX_TOKENS", 600),
		CompletionTimeout:     time.Duration(getEnvInt("COMPLETION_TIMEOUT_MS", 30000)) * time.Millisecond,

		ModerationEndpoint:   getEnv("MODERATION_ENDPOINT", ""),
		ModerationAPIKey:     getEnv("MODERATION_API_KEY", ""),
		ModerationTimeout:    time.Duration(getEnvInt("MODERATION_TIMEOUT_MS", 2000)) * time.Millisecond,
		ModerationFailClosed: getEnvBool("MODERATION_FAIL_CLOSED", false),

		AuditHost:        getEnv("AUDIT_HOST", ""),
		AuditPublicKey:   getEnv("AUDIT_PUBLIC_KEY", ""),
		AuditSecretKey:   getEnv("AUDIT_SECRET_KEY", ""),
		AuditTraceName:   getEnv("AUDIT_TRACE_NAME", "modgate-chat"),
		AuditTimeout:     time.Duration(getEnvInt("AUDIT_TIMEOUT_MS", 10000)) * time.Millisecond,
		AuditMaxInflight: int64(getEnvInt("AUDIT_MAX_INFLIGHT", 4)),

		MaxInputLength:    getEnvInt("MAX_INPUT_LENGTH", 3000),
		RateLimitCooldown: time.Duration(getEnvInt("RATE_LIMIT_COOLDOWN_MS", 2000)) * time.Millisecond,
		SystemPrompt:      getEnv("SYSTEM_PROMPT", DefaultSystemPrompt),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

// ModerationConfigured reports whether the optional classifier is usable.
func (c *Config) ModerationConfigured() bool {
	return c.ModerationEndpoint != "" && c.ModerationAPIKey != ""
}

// AuditConfigured reports whether the optional audit emitter is usable.
func (c *Config) AuditConfigured() bool {
	return c.AuditHost != "" && c.AuditPublicKey != "" && c.AuditSecretKey != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
