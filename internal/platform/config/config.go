package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration. The registry owner is fixed
// here at initialization; no mutator exists anywhere in the system, so owner
// immutability is structural rather than convention.
type Server struct {
	Addr          string
	OwnerIdentity string
	JWTSigningKey string

	// Optional backends. Empty values select the in-memory implementations.
	PostgresURL  string
	RedisURL     string
	EventLogPath string

	// Optional Kafka fan-out for downstream event consumers.
	KafkaBrokers []string
	KafkaTopic   string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("HEALTHCHAIN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("KAFKA_TOPIC")
	if topic == "" {
		topic = "healthchain.events"
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		OwnerIdentity: os.Getenv("HEALTHCHAIN_OWNER"),
		JWTSigningKey: jwtSigningKey,
		PostgresURL:   os.Getenv("POSTGRES_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		EventLogPath:  os.Getenv("EVENTLOG_DB_PATH"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
	}
}
