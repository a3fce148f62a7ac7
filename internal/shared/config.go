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

	TelephonyBase string
	TelephonyKey  string
	TelephonyRPS  int

	BatchCap         int
	CallDelay        time.Duration
	BiweeklyCooldown time.Duration
	Lookahead        time.Duration
	PendingCacheTTL  time.Duration

	CycleInterval time.Duration // scheduler binary; 0 = run one cycle and exit
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
		AppEnv:           env("APP_ENV", "prod"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ":9100"),
		MySQLDSN:         env("MYSQL_DSN", "root:root@tcp(localhost:3306)/shelterline?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:        env("REDIS_ADDR", "localhost:6379"),
		RedisPass:        env("REDIS_PASSWORD", ""),
		RedisDB:          atoi("REDIS_DB", 0),
		TelephonyBase:    env("TELEPHONY_BASE_URL", "https://voice.example.com/v1"),
		TelephonyKey:     env("TELEPHONY_API_KEY", ""),
		TelephonyRPS:     atoi("TELEPHONY_RPS", 5),
		BatchCap:         atoi("DISPATCH_BATCH_CAP", 10),
		CallDelay:        time.Duration(atoi("DISPATCH_CALL_DELAY_MS", 2000)) * time.Millisecond,
		BiweeklyCooldown: time.Duration(atoi("BIWEEKLY_COOLDOWN_DAYS", 14)) * 24 * time.Hour,
		Lookahead:        time.Duration(atoi("PENDING_LOOKAHEAD_DAYS", 7)) * 24 * time.Hour,
		PendingCacheTTL:  time.Duration(atoi("PENDING_CACHE_TTL_SECONDS", 30)) * time.Second,
		CycleInterval:    time.Duration(atoi("CYCLE_INTERVAL_SECONDS", 0)) * time.Second,
	}
	if c.TelephonyKey == "" {
		log.Warn().Msg("TELEPHONY_API_KEY is empty")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
