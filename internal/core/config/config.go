package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type EventsCfg struct {
	Enabled   bool
	Brokers   string
	Topic     string
	QueueSize int
}

type Config struct {
	Addr           string
	LogLevel       string
	CatalogPath    string
	ViewportWidth  float64
	ViewportHeight float64
	MaxViewport    float64
	MaxNames       int
	RedisAddr      string
	PlanCacheSize  int
	PlanCacheTTL   time.Duration
	CacheOpTimeout time.Duration
	Events         EventsCfg
}

func FromEnv() Config {
	maxVP := getfloat("MAX_VIEWPORT", 8192)
	w := getfloat("VIEWPORT_WIDTH", 960)
	h := getfloat("VIEWPORT_HEIGHT", 500)
	if w <= 0 || w > maxVP {
		w = 960
	}
	if h <= 0 || h > maxVP {
		h = 500
	}

	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		CatalogPath:    getenv("CATALOG_PATH", ""),
		ViewportWidth:  w,
		ViewportHeight: h,
		MaxViewport:    maxVP,
		MaxNames:       getint("MAX_NAMES", 500),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		PlanCacheSize:  getint("PLAN_CACHE_SIZE", 1024),
		PlanCacheTTL:   getduration("PLAN_CACHE_TTL", 10*time.Minute),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		Events: EventsCfg{
			Enabled:   getbool("EVENTS_ENABLED", false),
			Brokers:   getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:     getenv("KAFKA_TOPIC", "mapspec-unmatched"),
			QueueSize: getint("EVENTS_QUEUE", 1024),
		},
	}
}

// BrokerList splits the comma separated broker string.
func (e EventsCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
