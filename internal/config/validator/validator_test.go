package validator

import (
	"strings"
	"testing"
	"time"

	"flyingsocks-core/internal/config/schema"
	"flyingsocks-core/internal/config/source"
)

func hasError(result *ValidationResult, field string) bool {
	for _, e := range result.Errors {
		if e.Field == field {
			return true
		}
	}
	return false
}

func TestValidateConfig_Defaults(t *testing.T) {
	result := ValidateConfig(source.GetDefaultConfig())
	if !result.IsValid() {
		t.Errorf("default config should be valid:\n%s", result.Error())
	}
	if result.Error() != "" {
		t.Errorf("Error() = %q, want empty", result.Error())
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *schema.Root)
		field  string
	}{
		{"log level", func(c *schema.Root) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *schema.Root) { c.Log.Format = "xml" }, "log.format"},
		{"log output", func(c *schema.Root) { c.Log.Output = "syslog" }, "log.output"},
		{"log file missing", func(c *schema.Root) { c.Log.Output = schema.LogOutputFile }, "log.file"},
		{"pac dir", func(c *schema.Root) { c.PAC.Dir = "" }, "pac.dir"},
		{"pac file with dir", func(c *schema.Root) { c.PAC.DomainListFile = "rules/pac.txt" }, "pac.domain_list_file"},
		{"resolve timeout", func(c *schema.Root) { c.PAC.ResolveTimeout = -time.Second }, "pac.resolve_timeout"},
		{"cache size", func(c *schema.Root) { c.PAC.ResolveCacheSize = -1 }, "pac.resolve_cache_size"},
		{"server address", func(c *schema.Root) { c.Server.Address = "" }, "server.address"},
		{"server address no port", func(c *schema.Root) { c.Server.Address = "proxy.example.com" }, "server.address"},
		{"server transport", func(c *schema.Root) { c.Server.Transport = "kcp" }, "server.transport"},
		{"connect timeout", func(c *schema.Root) { c.Server.ConnectTimeout = -1 }, "server.connect_timeout"},
		{"max payload", func(c *schema.Root) { c.Server.MaxPayload = -1 }, "server.max_payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := source.GetDefaultConfig()
			tt.mutate(cfg)

			result := ValidateConfig(cfg)
			if result.IsValid() {
				t.Fatal("expected validation error")
			}
			if !hasError(result, tt.field) {
				t.Errorf("expected error on %s, got %v", tt.field, result.Errors)
			}
		})
	}
}

func TestValidateConfig_WebSocketURLAddress(t *testing.T) {
	cfg := source.GetDefaultConfig()
	cfg.Server.Transport = schema.TransportWebSocket
	cfg.Server.Address = "https://proxy.example.com/flyingsocks"

	result := ValidateConfig(cfg)
	if !result.IsValid() {
		t.Errorf("websocket URL should be accepted:\n%s", result.Error())
	}
}

func TestValidationResult_Error(t *testing.T) {
	result := &ValidationResult{}
	result.AddError("server.address", "x", "invalid server address", "Use format host:port")

	msg := result.Error()
	for _, want := range []string{"server.address", "Current value: x", "Hint: Use format host:port"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() missing %q:\n%s", want, msg)
		}
	}

	e := result.Errors[0]
	if e.Error() != "server.address: invalid server address" {
		t.Errorf("ValidationError.Error() = %q", e.Error())
	}
}

func TestValidator_AddRule(t *testing.T) {
	v := NewValidator()
	v.AddRule(func(cfg *schema.Root, result *ValidationResult) {
		result.AddError("custom", "", "always fails", "")
	})

	result := v.Validate(source.GetDefaultConfig())
	if !hasError(result, "custom") {
		t.Error("custom rule was not applied")
	}
}
