package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cyberguard/internal/flagx"
	"github.com/dmitrijs2005/cyberguard/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Every field is
// optional: absent keys leave the current value untouched. Durations accept
// strings such as "15m" or integer nanoseconds (see timex.Duration).
type JsonConfig struct {
	EndpointAddrHTTP        *string         `json:"endpoint_addr_http"`
	DatabaseDSN             *string         `json:"database_dsn"`
	SecretKey               *string         `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	CookieName              *string         `json:"cookie_name"`
	CookieSecure            *bool           `json:"cookie_secure"`
	CORSOrigins             []string        `json:"cors_origins"`
	LoginRateLimit          *int            `json:"login_rate_limit"`
	LoginRateWindow         *timex.Duration `json:"login_rate_window"`
	RedisAddr               *string         `json:"redis_addr"`
	TrustProxy              *bool           `json:"trust_proxy"`
	RevokeOnLogout          *bool           `json:"revoke_on_logout"`
	BcryptCost              *int            `json:"bcrypt_cost"`
	LogLevel                *string         `json:"log_level"`
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing happens. An unreadable file or invalid JSON panics, as the
// server cannot start with a half-applied configuration.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.CookieName != nil {
		config.CookieName = *c.CookieName
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	if c.LoginRateLimit != nil {
		config.LoginRateLimit = *c.LoginRateLimit
	}
	if c.LoginRateWindow != nil {
		config.LoginRateWindow = c.LoginRateWindow.Duration
	}
	if c.RedisAddr != nil {
		config.RedisAddr = *c.RedisAddr
	}
	if c.TrustProxy != nil {
		config.TrustProxy = *c.TrustProxy
	}
	if c.RevokeOnLogout != nil {
		config.RevokeOnLogout = *c.RevokeOnLogout
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
}
