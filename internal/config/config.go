package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPPort string
	LogLevel string

	NATSURL             string
	NATSInboundSubject  string
	NATSOutboundSubject string

	LookupURL              string
	IssuanceURL            string
	LookupTimeoutSeconds   int
	IssuanceTimeoutSeconds int

	// PostgresDSN enables the audit trail; empty disables it.
	PostgresDSN string

	// DefaultRegionCode completes addresses the lookup backend returns
	// without a region suffix.
	DefaultRegionCode string

	// ProductKeyOverride, when set, replaces the catalog product key on every
	// issuance request (the SSE_CHAVE escape hatch of the legacy deployment).
	ProductKeyOverride string

	EntityDisplayLimit int

	OutboundRatePerSecond int
	OutboundBurst         int
}

func Load() Config {
	return Config{
		HTTPPort: mustEnv("HTTP_PORT", "3000"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		NATSURL:             mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSInboundSubject:  mustEnv("NATS_INBOUND_SUBJECT", "chat.inbound"),
		NATSOutboundSubject: mustEnv("NATS_OUTBOUND_SUBJECT", "chat.outbound"),

		LookupURL:              mustEnv("LOOKUP_URL", "https://homologacao.abaco.com.br/arapiraca_proj_hml_eagata/servlet/apwsretornopertences"),
		IssuanceURL:            mustEnv("ISSUANCE_URL", "https://homologacao.abaco.com.br/arapiraca_proj_hml_eagata/servlet/apapidocumento"),
		LookupTimeoutSeconds:   mustEnvInt("LOOKUP_TIMEOUT_SECONDS", 15),
		IssuanceTimeoutSeconds: mustEnvInt("ISSUANCE_TIMEOUT_SECONDS", 20),

		PostgresDSN: mustEnv("POSTGRES_DSN", ""),

		DefaultRegionCode:  mustEnv("DEFAULT_REGION_CODE", "AL"),
		ProductKeyOverride: mustEnv("SSE_CHAVE", ""),

		EntityDisplayLimit: mustEnvInt("ENTITY_DISPLAY_LIMIT", 20),

		OutboundRatePerSecond: mustEnvInt("OUTBOUND_RATE_PER_SECOND", 5),
		OutboundBurst:         mustEnvInt("OUTBOUND_BURST", 10),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
