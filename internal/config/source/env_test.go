package source

import (
	"testing"
	"time"

	"flyingsocks-core/internal/config/schema"
)

func TestEnvSource_Name(t *testing.T) {
	s := NewEnvSource(DefaultEnvPrefix)
	if s.Name() != "env" {
		t.Errorf("Name() = %q, want %q", s.Name(), "env")
	}
}

func TestEnvSource_Priority(t *testing.T) {
	s := NewEnvSource(DefaultEnvPrefix)
	if s.Priority() != PriorityEnv {
		t.Errorf("Priority() = %d, want %d", s.Priority(), PriorityEnv)
	}
}

func TestEnvSource_LoadInto_String(t *testing.T) {
	t.Setenv("FLYINGSOCKS_LOG_LEVEL", "debug")
	t.Setenv("FLYINGSOCKS_SERVER_TRANSPORT", "websocket")

	cfg := &schema.Root{}
	s := NewEnvSource(DefaultEnvPrefix)

	if err := s.LoadInto(cfg); err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Server.Transport != "websocket" {
		t.Errorf("Server.Transport = %q, want %q", cfg.Server.Transport, "websocket")
	}
}

func TestEnvSource_LoadInto_Int(t *testing.T) {
	t.Setenv("FLYINGSOCKS_PAC_RESOLVE_CACHE_SIZE", "64")
	t.Setenv("FLYINGSOCKS_SERVER_MAX_PAYLOAD", "1024")

	cfg := &schema.Root{}
	s := NewEnvSource(DefaultEnvPrefix)

	if err := s.LoadInto(cfg); err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}

	if cfg.PAC.ResolveCacheSize != 64 {
		t.Errorf("PAC.ResolveCacheSize = %d, want 64", cfg.PAC.ResolveCacheSize)
	}
	if cfg.Server.MaxPayload != 1024 {
		t.Errorf("Server.MaxPayload = %d, want 1024", cfg.Server.MaxPayload)
	}
}

func TestEnvSource_LoadInto_Duration(t *testing.T) {
	t.Setenv("FLYINGSOCKS_PAC_RESOLVE_TIMEOUT", "250ms")
	t.Setenv("FLYINGSOCKS_SERVER_CONNECT_TIMEOUT", "5s")

	cfg := &schema.Root{}
	s := NewEnvSource(DefaultEnvPrefix)

	if err := s.LoadInto(cfg); err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}

	if cfg.PAC.ResolveTimeout != 250*time.Millisecond {
		t.Errorf("PAC.ResolveTimeout = %v, want 250ms", cfg.PAC.ResolveTimeout)
	}
	if cfg.Server.ConnectTimeout != 5*time.Second {
		t.Errorf("Server.ConnectTimeout = %v, want 5s", cfg.Server.ConnectTimeout)
	}
}

func TestEnvSource_LoadInto_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("FLYINGSOCKS_PAC_RESOLVE_CACHE_SIZE", "lots")
	t.Setenv("FLYINGSOCKS_PAC_RESOLVE_TIMEOUT", "soon")

	cfg := GetDefaultConfig()
	s := NewEnvSource(DefaultEnvPrefix)

	if err := s.LoadInto(cfg); err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}

	if cfg.PAC.ResolveCacheSize != 4096 {
		t.Errorf("PAC.ResolveCacheSize = %d, want default 4096", cfg.PAC.ResolveCacheSize)
	}
	if cfg.PAC.ResolveTimeout != 3*time.Second {
		t.Errorf("PAC.ResolveTimeout = %v, want default 3s", cfg.PAC.ResolveTimeout)
	}
}

func TestEnvSource_LoadInto_OtherPrefixIgnored(t *testing.T) {
	t.Setenv("OTHER_LOG_LEVEL", "error")

	cfg := &schema.Root{}
	s := NewEnvSource(DefaultEnvPrefix)

	if err := s.LoadInto(cfg); err != nil {
		t.Fatalf("LoadInto() error = %v", err)
	}
	if cfg.Log.Level != "" {
		t.Errorf("Log.Level = %q, want empty", cfg.Log.Level)
	}
}
