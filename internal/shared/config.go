package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string

	HostawayBase   string
	HostawayID     string
	HostawaySecret string
	HostawayRPS    int

	JWTSecret string
	JWTTTL    time.Duration

	FCMServerKey string
	StaticDir    string
	CacheTTL     time.Duration
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/owner_portal?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),

		HostawayBase:   env("HOSTAWAY_BASE_URL", "https://api.hostaway.com/v1"),
		HostawayID:     env("HOSTAWAY_CLIENT_ID", ""),
		HostawaySecret: env("HOSTAWAY_CLIENT_SECRET", ""),
		HostawayRPS:    atoi("HOSTAWAY_RPS", 5),

		JWTSecret: env("JWT_SECRET", ""),
		JWTTTL:    time.Duration(atoi("JWT_TTL_HOURS", 72)) * time.Hour,

		FCMServerKey: env("FCM_SERVER_KEY", ""),
		StaticDir:    env("STATIC_DIR", "./public"),
		CacheTTL:     time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}
	if c.HostawayID == "" || c.HostawaySecret == "" {
		log.Warn().Msg("HOSTAWAY_CLIENT_ID / HOSTAWAY_CLIENT_SECRET are empty; vendor calls will fail and fallback data will serve")
	}
	if c.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
