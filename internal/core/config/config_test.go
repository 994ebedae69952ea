package config

import (
	"reflect"
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "VIEWPORT_WIDTH", "VIEWPORT_HEIGHT", "REDIS_ADDR", "EVENTS_ENABLED", "PLAN_CACHE_TTL"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Addr != ":8090" || c.ViewportWidth != 960 || c.ViewportHeight != 500 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.RedisAddr != "" || c.Events.Enabled {
		t.Fatalf("redis and events must be off by default: %+v", c)
	}
	if c.PlanCacheTTL != 10*time.Minute {
		t.Fatalf("ttl=%v", c.PlanCacheTTL)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("VIEWPORT_WIDTH", "1200")
	t.Setenv("VIEWPORT_HEIGHT", "-3")
	t.Setenv("EVENTS_ENABLED", "yes")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("PLAN_CACHE_TTL", "not-a-duration")

	c := FromEnv()
	if c.ViewportWidth != 1200 {
		t.Fatalf("width=%v", c.ViewportWidth)
	}
	if c.ViewportHeight != 500 {
		t.Fatalf("invalid height should fall back, got %v", c.ViewportHeight)
	}
	if !c.Events.Enabled {
		t.Fatalf("events should be enabled")
	}
	if got := c.Events.BrokerList(); !reflect.DeepEqual(got, []string{"a:9092", "b:9092"}) {
		t.Fatalf("brokers=%v", got)
	}
	if c.PlanCacheTTL != 10*time.Minute {
		t.Fatalf("bad duration should fall back, got %v", c.PlanCacheTTL)
	}
}
