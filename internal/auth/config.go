package auth

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
}

// ConfigFromEnv reads JWT_SECRET, JWT_TTL_MINUTES, AUTH_COOKIE_NAME and AUTH_COOKIE_SECURE.
func ConfigFromEnv() Config {
	ttl := 24 * time.Hour
	if m, err := strconv.Atoi(os.Getenv("JWT_TTL_MINUTES")); err == nil && m > 0 {
		ttl = time.Duration(m) * time.Minute
	}
	name := os.Getenv("AUTH_COOKIE_NAME")
	if name == "" {
		name = "auth_token"
	}
	return Config{
		Secret:       os.Getenv("JWT_SECRET"),
		TTL:          ttl,
		CookieName:   name,
		CookieSecure: os.Getenv("AUTH_COOKIE_SECURE") == "1",
	}
}
