package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPAddr string

	// RoomGrace lets an emptied room survive briefly so a reconnect
	// keeps the session. Zero disposes immediately.
	RoomGrace time.Duration

	// DatabaseURL enables the external session directory when set.
	DatabaseURL string

	CORSAllow []string
}

func Load() Config {
	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":2567"),
		RoomGrace:   getEnvDuration("ROOM_GRACE", 0),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSAllow:   splitCSV(getEnv("CORS_ALLOW", "*")),
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return def
}

func splitCSV(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
