package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dotenvFiles are tried in order; variables already present in the process
// environment always win over file values.
var dotenvFiles = []string{".env"}

// parseEnv overlays Config with environment variables. A .env file in the
// working directory is loaded first when present.
//
// Recognised variables:
//
//	PORT, HTTP_ADDR, DATABASE_URL, JWT_SECRET, SESSION_TTL, COOKIE_NAME,
//	COOKIE_SECURE, NODE_ENV/APP_ENV, CORS_ORIGIN, LOGIN_RATE_LIMIT,
//	LOGIN_RATE_WINDOW, REDIS_ADDR, TRUST_PROXY, REVOKE_ON_LOGOUT, BCRYPT_COST,
//	LOG_LEVEL
//
// Malformed numbers, booleans and durations are ignored and the previous
// value is kept.
func parseEnv(config *Config) {
	for _, f := range dotenvFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}

	if v, ok := lookup("PORT"); ok {
		config.EndpointAddrHTTP = ":" + v
	}
	if v, ok := lookup("HTTP_ADDR"); ok {
		config.EndpointAddrHTTP = v
	}
	if v, ok := lookup("DATABASE_URL"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookup("JWT_SECRET"); ok {
		config.SecretKey = v
	}
	if v, ok := lookup("SESSION_TTL"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.SessionValidityDuration = d
		}
	}
	if v, ok := lookup("COOKIE_NAME"); ok {
		config.CookieName = v
	}
	for _, k := range []string{"NODE_ENV", "APP_ENV"} {
		if v, ok := lookup(k); ok && strings.EqualFold(v, "production") {
			config.CookieSecure = true
		}
	}
	if v, ok := lookup("COOKIE_SECURE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.CookieSecure = b
		}
	}
	if v, ok := lookup("CORS_ORIGIN"); ok {
		config.CORSOrigins = SplitOrigins(v)
	}
	if v, ok := lookup("LOGIN_RATE_LIMIT"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.LoginRateLimit = n
		}
	}
	if v, ok := lookup("LOGIN_RATE_WINDOW"); ok {
		if d, err := time.ParseDuration(v); err == nil {
			config.LoginRateWindow = d
		}
	}
	if v, ok := lookup("REDIS_ADDR"); ok {
		config.RedisAddr = v
	}
	if v, ok := lookup("TRUST_PROXY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.TrustProxy = b
		}
	}
	if v, ok := lookup("REVOKE_ON_LOGOUT"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			config.RevokeOnLogout = b
		}
	}
	if v, ok := lookup("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			config.BcryptCost = n
		}
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// SplitOrigins turns "a, b/,c" into ["a" "b" "c"], dropping empty parts and
// trailing slashes.
func SplitOrigins(s string) []string {
	var origins []string
	for _, p := range strings.Split(s, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
