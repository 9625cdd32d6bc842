package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config is filled by kong from flags and the environment.
type Config struct {
	Debug   bool   `help:"Enable debug logging and relaxed validation." env:"DEBUG"`
	AppPort string `help:"HTTP listen port." default:"3001" env:"APP_PORT"`

	DB       DBConfig       `embed:"" prefix:"db-"`
	Auth     AuthConfig     `embed:"" prefix:"jwt-"`
	AMQP     AMQPConfig     `embed:"" prefix:"amqp-"`
	Redis    RedisConfig    `embed:"" prefix:"redis-"`
	S3       S3Config       `embed:"" prefix:"s3-"`
	Audit    AuditConfig    `embed:"" prefix:"audit-"`
	Shutdown ShutdownConfig `embed:"" prefix:"shutdown-"`
}

type DBConfig struct {
	Driver       string `help:"Database driver." default:"postgres" enum:"postgres,mysql,sqlite" env:"DB_DRIVER"`
	DSN          string `help:"Database connection string." env:"DATABASE_DSN"`
	MaxOpenConns int    `help:"Maximum open connections." default:"20" env:"DB_MAX_OPEN_CONNS"`
}

type AuthConfig struct {
	Secret     string        `help:"HMAC secret for session tokens." env:"JWT_SECRET"`
	TTL        time.Duration `help:"Session token lifetime." default:"24h" env:"JWT_TTL"`
	BcryptCost int           `help:"bcrypt work factor for new passwords." default:"12" env:"BCRYPT_COST"`
}

type AMQPConfig struct {
	URL      string `help:"AMQP broker URL; empty disables publishing." env:"AMQP_URL"`
	Exchange string `help:"Topic exchange for work requests." default:"airg.work" env:"AMQP_EXCHANGE"`
}

type RedisConfig struct {
	URL            string        `help:"Redis URL for idempotency keys; empty disables replay." default:"redis://localhost:6379" env:"REDIS_URL"`
	IdempotencyTTL time.Duration `help:"How long idempotent responses are kept." default:"24h" env:"IDEMPOTENCY_TTL"`
}

type S3Config struct {
	Endpoint        string        `help:"S3-compatible endpoint; empty disables upload signing." env:"S3_ENDPOINT"`
	Region          string        `help:"S3 region." default:"us-east-1" env:"S3_REGION"`
	AccessKeyID     string        `help:"S3 access key." env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `help:"S3 secret key." env:"S3_SECRET_ACCESS_KEY"`
	Bucket          string        `help:"Upload bucket." default:"airg" env:"S3_BUCKET"`
	PresignExpiry   time.Duration `help:"Lifetime of presigned upload URLs." default:"5m" env:"S3_PRESIGN_EXPIRY"`
}

type AuditConfig struct {
	SensitivePrefixes []string `help:"Paths audited for every method." default:"/uploads,/themes/rebuild,/exports,/documents" env:"AUDIT_PREFIXES"`
}

type ShutdownConfig struct {
	Timeout time.Duration `help:"Grace period for in-flight requests." default:"15s" env:"SHUTDOWN_TIMEOUT"`
}

const devSecret = "dev-secret-only"

// LoadDotEnv loads a .env file if one exists. Call it before kong parses
// so the file can feed env tags.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg(".env file not found, using system environment variables")
	}
}

// Validate fills development defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.DB.DSN == "" {
		if c.DB.Driver != "sqlite" {
			return errors.New("database DSN is required (--db-dsn or DATABASE_DSN)")
		}
		c.DB.DSN = "airg.db"
	}

	if c.Auth.Secret == "" {
		if !c.Debug {
			return errors.New("JWT secret is required (--jwt-secret or JWT_SECRET)")
		}
		c.Auth.Secret = devSecret
	}
	if !c.Debug && len(c.Auth.Secret) < 32 {
		return errors.New("JWT secret must be at least 32 bytes for HMAC-SHA256")
	}

	if c.Auth.BcryptCost < 10 && !c.Debug {
		return errors.New("bcrypt cost below 10 is only allowed in debug mode")
	}
	return nil
}

func (c *Config) ListenAddr() string {
	return ":" + c.AppPort
}
