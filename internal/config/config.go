package config // package config loads application configuration from environment variables

import (
	"log" // log reports configuration errors before the zap logger exists
	"os"  // os provides access to environment variables
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Optional groups (Redis, rate limiting, caching)
// have their own loaders in the sibling files.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	DBMigrate bool   // create tables on startup when true
	JWTSecret string // secret used to verify access tokens
	LogLevel  string // zap level: debug, info, warn, error
	LogFormat string // json or console
	Queue     QueueConfig
}

// QueueConfig describes the RabbitMQ side of the service.  An empty URL
// disables event publishing.
type QueueConfig struct {
	URL             string // amqp:// connection string
	Name            string // queue receiving reservation events
	ConsumerEnabled bool   // run the audit consumer inside this process
	AuditLogDir     string // directory the audit consumer appends to
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),              // environment (dev/test/prod)
		Port:      must("APP_PORT"),             // port to bind the HTTP server
		DBUser:    must("DB_USER"),              // database user
		DBPass:    os.Getenv("DB_PASS"),         // database password (empty allowed)
		DBHost:    must("DB_HOST"),              // database host
		DBPort:    must("DB_PORT"),              // database port
		DBName:    must("DB_NAME"),              // database name
		DBMigrate: envBool("DB_MIGRATE", false), // apply schema on boot
		JWTSecret: must("JWT_SECRET"),           // secret used for verifying JWTs
		LogLevel:  envStr("LOG_LEVEL", "info"),  // logging threshold
		LogFormat: envStr("LOG_FORMAT", "json"), // logging encoder
		Queue:     LoadQueueConfig(),
	}
}

// LoadQueueConfig reads the RabbitMQ settings.  RABBITMQ_URL wins over the
// older AMQP_URL name.
func LoadQueueConfig() QueueConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return QueueConfig{
		URL:             url,
		Name:            envStr("QUEUE_NAME", "reservation.events"),
		ConsumerEnabled: envBool("QUEUE_CONSUMER_ENABLED", false),
		AuditLogDir:     envStr("AUDIT_LOG_DIR", "logs"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
