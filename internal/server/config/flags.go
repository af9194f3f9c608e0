package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/flagx"
)

var (
	valuedFlags = []string{"-a", "-d", "-s", "-t", "-n", "-o", "-l", "-w", "-r", "-b", "-g"}
	switchFlags = []string{"-k", "-p", "-v"}
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      session validity, hours
//	-n string   session cookie name
//	-k          mark the session cookie Secure
//	-o string   comma-separated CORS origins
//	-l int      login attempts allowed per window
//	-w int      login rate window, minutes
//	-r string   Redis address for the login limiter
//	-p          trust X-Forwarded-For / X-Real-IP from a reverse proxy
//	-v          revoke session tokens on logout
//	-b int      bcrypt cost
//	-g string   log level
//
// Only the flags above are picked out of os.Args (see flagx.FilterFlags).
func parseFlags(config *Config) {
	args := flagx.FilterFlags(os.Args[1:], valuedFlags, switchFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Hours()), "session validity (in hours)")
	fs.StringVar(&config.CookieName, "n", config.CookieName, "session cookie name")
	fs.BoolVar(&config.CookieSecure, "k", config.CookieSecure, "secure session cookie")
	origins := fs.String("o", strings.Join(config.CORSOrigins, ","), "comma-separated CORS origins")
	fs.IntVar(&config.LoginRateLimit, "l", config.LoginRateLimit, "login attempts per window")
	rateWindow := fs.Int("w", int(config.LoginRateWindow.Minutes()), "login rate window (in minutes)")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.BoolVar(&config.TrustProxy, "p", config.TrustProxy, "trust proxy headers for the client IP")
	fs.BoolVar(&config.RevokeOnLogout, "v", config.RevokeOnLogout, "revoke tokens on logout")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.StringVar(&config.LogLevel, "g", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// durations are only replaced when given, so sub-unit values set by
	// other layers survive the round trip through int
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Hour
		case "w":
			config.LoginRateWindow = time.Duration(*rateWindow) * time.Minute
		case "o":
			config.CORSOrigins = SplitOrigins(*origins)
		}
	})
}
