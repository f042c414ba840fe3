package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from its environment so main
// stays lean. Optional backends (postgres, redis, kafka, resolver) are
// enabled by supplying their connection settings and fall back to in-process
// implementations when empty.
type Config struct {
	Addr          string
	LocalDomainID uint64

	// OwnerAddress is the single administrator; AdminJWTKey signs the
	// tokens that prove it over HTTP.
	OwnerAddress string
	AdminJWTKey  string

	PostgresDSN string
	RedisURL    string

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroup   string

	ResolverURL string

	// ReplayRetention bounds how long replay/dedup keys are kept in redis.
	// Zero keeps them forever (append-only log).
	ReplayRetention time.Duration

	DefaultRateMicroUSDPerKB uint64
	GasHighWatermarkWei      uint64
	GasLowWatermarkWei       uint64
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:                     envOr("METAREGISTRY_ADDR", ":8080"),
		LocalDomainID:            envUint("METAREGISTRY_DOMAIN_ID", 1),
		OwnerAddress:             os.Getenv("METAREGISTRY_OWNER"),
		AdminJWTKey:              envOr("METAREGISTRY_ADMIN_JWT_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:              os.Getenv("METAREGISTRY_POSTGRES_DSN"),
		RedisURL:                 os.Getenv("METAREGISTRY_REDIS_URL"),
		KafkaTopic:               envOr("METAREGISTRY_KAFKA_TOPIC", "crossdomain.messages"),
		KafkaGroup:               envOr("METAREGISTRY_KAFKA_GROUP", "metaregistry"),
		ResolverURL:              os.Getenv("METAREGISTRY_RESOLVER_URL"),
		ReplayRetention:          envDuration("METAREGISTRY_REPLAY_RETENTION", 0),
		DefaultRateMicroUSDPerKB: envUint("METAREGISTRY_DEFAULT_RATE_MICROUSD_PER_KB", 10_000),
		GasHighWatermarkWei:      envUint("METAREGISTRY_GAS_HIGH_WATERMARK_WEI", 100_000_000_000),
		GasLowWatermarkWei:       envUint("METAREGISTRY_GAS_LOW_WATERMARK_WEI", 10_000_000_000),
	}
	if brokers := os.Getenv("METAREGISTRY_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint(key string, fallback uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
