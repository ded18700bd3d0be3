package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestConnectionString(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "dyntraits",
		Password: "secret",
		Database: "dyntraits_test",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=dyntraits password=secret dbname=dyntraits_test sslmode=disable"
	if got := cfg.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %q, want %q", got, want)
	}
}

func TestLoadRequiresPassword(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	if _, err := Load(); err == nil {
		t.Error("Load should fail without DB_PASSWORD")
	}
}

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	if err := InitConfig("test"); err != nil {
		t.Fatalf("InitConfig: %v", err)
	}
	viper.Set("DB_PASSWORD", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port == 0 {
		t.Error("server port should have a default")
	}
	if cfg.Cache.TTLMinutes == 0 {
		t.Error("cache TTL should have a default")
	}
	if len(cfg.Auth.PrivilegedRoles) == 0 {
		t.Error("privileged roles should have a default")
	}
}
