// Package validator provides configuration validation
package validator

import (
	"fmt"
	"net"
	"strings"
	"time"

	"flyingsocks-core/internal/client/transport"
	"flyingsocks-core/internal/config/schema"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string // Field path (e.g., "server.address")
	Value   string // Current value
	Message string // Error message
	Hint    string // Fix suggestion
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationResult contains all validation errors
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a formatted error message
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Configuration validation failed:\n\n")

	for i, err := range r.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Field))
		if err.Value != "" {
			sb.WriteString(fmt.Sprintf("     Current value: %s\n", err.Value))
		}
		sb.WriteString(fmt.Sprintf("     Error: %s\n", err.Message))
		if err.Hint != "" {
			sb.WriteString(fmt.Sprintf("     Hint: %s\n", err.Hint))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// AddError adds a validation error
func (r *ValidationResult) AddError(field, value, message, hint string) {
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Hint:    hint,
	})
}

// Validator validates configuration
type Validator struct {
	rules []ValidationRule
}

// ValidationRule is a function that validates configuration
type ValidationRule func(cfg *schema.Root, result *ValidationResult)

// NewValidator creates a new Validator with default rules
func NewValidator() *Validator {
	v := &Validator{
		rules: make([]ValidationRule, 0),
	}

	v.AddRule(validateLog)
	v.AddRule(validatePAC)
	v.AddRule(validateServer)

	return v
}

// AddRule adds a validation rule
func (v *Validator) AddRule(rule ValidationRule) {
	v.rules = append(v.rules, rule)
}

// Validate validates the configuration
func (v *Validator) Validate(cfg *schema.Root) *ValidationResult {
	result := &ValidationResult{
		Errors: make([]ValidationError, 0),
	}

	for _, rule := range v.rules {
		rule(cfg, result)
	}

	return result
}

// ValidateConfig is a convenience function that creates a validator and validates
func ValidateConfig(cfg *schema.Root) *ValidationResult {
	return NewValidator().Validate(cfg)
}

// ============================================================================
// Validation Rules
// ============================================================================

func validateLog(cfg *schema.Root, result *ValidationResult) {
	validateLogLevel("log.level", cfg.Log.Level, result)
	validateLogFormat("log.format", cfg.Log.Format, result)

	switch cfg.Log.Output {
	case "", schema.LogOutputStdout, schema.LogOutputStderr:
	case schema.LogOutputFile:
		if cfg.Log.File == "" {
			result.AddError("log.file",
				"",
				"file is required when output is file",
				"Set log.file to a writable path")
		}
	default:
		result.AddError("log.output",
			cfg.Log.Output,
			"invalid log output",
			"Use one of: stdout, stderr, file")
	}
}

func validatePAC(cfg *schema.Root, result *ValidationResult) {
	if cfg.PAC.Dir == "" {
		result.AddError("pac.dir",
			"",
			"rule directory is required",
			"Set pac.dir, e.g., ~/.flyingsocks")
	}

	validateFileName("pac.domain_list_file", cfg.PAC.DomainListFile, result)
	validateFileName("pac.whitelist_file", cfg.PAC.WhitelistFile, result)
	validateFileName("pac.mode_file", cfg.PAC.ModeFile, result)

	validatePositiveDuration("pac.resolve_timeout", cfg.PAC.ResolveTimeout, result)
	validatePositiveDuration("pac.resolve_cache_ttl", cfg.PAC.ResolveCacheTTL, result)

	if cfg.PAC.ResolveCacheSize < 0 {
		result.AddError("pac.resolve_cache_size",
			fmt.Sprintf("%d", cfg.PAC.ResolveCacheSize),
			"resolve_cache_size must not be negative",
			"Set a value >= 0, 0 uses the default")
	}
}

func validateServer(cfg *schema.Root, result *ValidationResult) {
	if cfg.Server.Address == "" {
		result.AddError("server.address",
			"",
			"server address is required",
			"Set server.address, e.g., 127.0.0.1:2020")
	} else if cfg.Server.Transport == schema.TransportTCP {
		if _, _, err := net.SplitHostPort(cfg.Server.Address); err != nil {
			result.AddError("server.address",
				cfg.Server.Address,
				"invalid server address",
				"Use format host:port, e.g., 127.0.0.1:2020")
		}
	}

	if cfg.Server.Transport != "" && !transport.IsProtocolAvailable(cfg.Server.Transport) {
		result.AddError("server.transport",
			cfg.Server.Transport,
			"unsupported transport",
			fmt.Sprintf("Use one of: %s", strings.Join(transport.GetAvailableProtocolNames(), ", ")))
	}

	validatePositiveDuration("server.connect_timeout", cfg.Server.ConnectTimeout, result)

	if cfg.Server.MaxPayload < 0 {
		result.AddError("server.max_payload",
			fmt.Sprintf("%d", cfg.Server.MaxPayload),
			"max_payload must not be negative",
			"Set a value >= 0, 0 uses the default")
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func validateFileName(field, name string, result *ValidationResult) {
	if name == "" {
		return
	}
	if strings.ContainsAny(name, `/\`) {
		result.AddError(field,
			name,
			"must be a file name inside pac.dir",
			"Remove directory components")
	}
}

func validatePositiveDuration(field string, d time.Duration, result *ValidationResult) {
	if d < 0 {
		result.AddError(field,
			d.String(),
			"duration must not be negative",
			"Set a positive value, 0 uses the default")
	}
}

func validateLogLevel(field, level string, result *ValidationResult) {
	validLevels := map[string]bool{
		schema.LogLevelDebug: true,
		schema.LogLevelInfo:  true,
		schema.LogLevelWarn:  true,
		schema.LogLevelError: true,
	}
	if !validLevels[level] && level != "" {
		result.AddError(field,
			level,
			"invalid log level",
			"Use one of: debug, info, warn, error")
	}
}

func validateLogFormat(field, format string, result *ValidationResult) {
	validFormats := map[string]bool{
		schema.LogFormatText: true,
		schema.LogFormatJSON: true,
	}
	if !validFormats[format] && format != "" {
		result.AddError(field,
			format,
			"invalid log format",
			"Use one of: text, json")
	}
}
