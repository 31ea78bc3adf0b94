package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotenv is a seam for tests; a missing .env file is not an error.
var loadDotenv = func() { _ = godotenv.Load() }

// parseEnv overlays values from the process environment, after first
// loading a .env file from the working directory if one exists. Variables
// already set in the environment win over .env entries.
//
//	HTTP_ADDR, GRPC_ADDR, DATABASE_DSN, SECRET_KEY, ACCESS_TOKEN_VALIDITY (duration),
//	PASSWORD_ALGO, UNIFORM_AUTH_ERRORS (bool), CORS_ORIGINS,
//	REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, AUTH_RATE_LIMIT,
//	S3_ROOT_USER, S3_ROOT_PASSWORD, S3_BUCKET, S3_REGION, S3_BASE_ENDPOINT,
//	PRESIGN_EXPIRY (duration), LOG_LEVEL
//
// Malformed numbers, booleans or durations panic.
func parseEnv(config *Config) {
	loadDotenv()

	envString("HTTP_ADDR", &config.HTTPAddr)
	envString("GRPC_ADDR", &config.GRPCAddr)
	envString("DATABASE_DSN", &config.DatabaseDSN)
	envString("SECRET_KEY", &config.SecretKey)
	envDuration("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	envString("PASSWORD_ALGO", &config.PasswordAlgo)
	if v, ok := os.LookupEnv("UNIFORM_AUTH_ERRORS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.UniformAuthErrors = b
	}
	envString("CORS_ORIGINS", &config.CORSOrigins)
	envString("REDIS_ADDR", &config.RedisAddr)
	envString("REDIS_PASSWORD", &config.RedisPassword)
	envInt("REDIS_DB", &config.RedisDB)
	envInt("AUTH_RATE_LIMIT", &config.AuthRateLimit)
	envString("S3_ROOT_USER", &config.S3RootUser)
	envString("S3_ROOT_PASSWORD", &config.S3RootPassword)
	envString("S3_BUCKET", &config.S3Bucket)
	envString("S3_REGION", &config.S3Region)
	envString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	envDuration("PRESIGN_EXPIRY", &config.PresignExpiry)
	envString("LOG_LEVEL", &config.LogLevel)
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}
