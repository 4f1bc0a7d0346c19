package source

import (
	"os"
	"strconv"
	"time"

	"flyingsocks-core/internal/config/schema"
)

// DefaultEnvPrefix is prepended to every environment variable name
const DefaultEnvPrefix = "FLYINGSOCKS"

// EnvSource loads configuration from environment variables
type EnvSource struct {
	prefix string
}

// NewEnvSource creates a new EnvSource with the specified prefix
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{
		prefix: prefix,
	}
}

// Name returns the source name
func (s *EnvSource) Name() string {
	return "env"
}

// Priority returns the source priority
func (s *EnvSource) Priority() int {
	return PriorityEnv
}

// LoadInto loads environment variables into the config structure
func (s *EnvSource) LoadInto(cfg *schema.Root) error {
	// Log
	s.loadString("LOG_LEVEL", &cfg.Log.Level)
	s.loadString("LOG_FORMAT", &cfg.Log.Format)
	s.loadString("LOG_OUTPUT", &cfg.Log.Output)
	s.loadString("LOG_FILE", &cfg.Log.File)

	// PAC
	s.loadString("PAC_DIR", &cfg.PAC.Dir)
	s.loadString("PAC_DOMAIN_LIST_FILE", &cfg.PAC.DomainListFile)
	s.loadString("PAC_WHITELIST_FILE", &cfg.PAC.WhitelistFile)
	s.loadString("PAC_MODE_FILE", &cfg.PAC.ModeFile)
	s.loadDuration("PAC_RESOLVE_TIMEOUT", &cfg.PAC.ResolveTimeout)
	s.loadInt("PAC_RESOLVE_CACHE_SIZE", &cfg.PAC.ResolveCacheSize)
	s.loadDuration("PAC_RESOLVE_CACHE_TTL", &cfg.PAC.ResolveCacheTTL)

	// Server
	s.loadString("SERVER_ADDRESS", &cfg.Server.Address)
	s.loadString("SERVER_TRANSPORT", &cfg.Server.Transport)
	s.loadDuration("SERVER_CONNECT_TIMEOUT", &cfg.Server.ConnectTimeout)
	s.loadInt("SERVER_MAX_PAYLOAD", &cfg.Server.MaxPayload)

	return nil
}

// getEnv gets environment variable with the configured prefix
func (s *EnvSource) getEnv(key string) (string, bool) {
	prefixedKey := s.prefix + "_" + key
	if v := os.Getenv(prefixedKey); v != "" {
		return v, true
	}
	return "", false
}

func (s *EnvSource) loadString(key string, target *string) {
	if v, ok := s.getEnv(key); ok {
		*target = v
	}
}

func (s *EnvSource) loadInt(key string, target *int) {
	if v, ok := s.getEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

func (s *EnvSource) loadDuration(key string, target *time.Duration) {
	if v, ok := s.getEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*target = d
		}
	}
}
