package source

import (
	"flyingsocks-core/internal/client/tunnel"
	"flyingsocks-core/internal/config/schema"
	"flyingsocks-core/internal/pac"
	"flyingsocks-core/internal/packet/parser"
)

// DefaultPACDir is where rule files live unless configured otherwise
const DefaultPACDir = "~/.flyingsocks"

// DefaultServerAddress is the proxy server used unless configured otherwise
const DefaultServerAddress = "127.0.0.1:2020"

// DefaultSource provides default configuration values
type DefaultSource struct{}

// NewDefaultSource creates a new DefaultSource
func NewDefaultSource() *DefaultSource {
	return &DefaultSource{}
}

// Name returns the source name
func (s *DefaultSource) Name() string {
	return "defaults"
}

// Priority returns the source priority
func (s *DefaultSource) Priority() int {
	return PriorityDefaults
}

// LoadInto loads default values into the configuration
func (s *DefaultSource) LoadInto(cfg *schema.Root) error {
	// Log defaults
	cfg.Log.Level = schema.LogLevelInfo
	cfg.Log.Format = schema.LogFormatText
	cfg.Log.Output = schema.LogOutputStderr

	// PAC defaults
	cfg.PAC.Dir = DefaultPACDir
	cfg.PAC.DomainListFile = pac.DefaultDomainListFile
	cfg.PAC.WhitelistFile = pac.DefaultWhitelistFile
	cfg.PAC.ModeFile = pac.DefaultModeFile
	cfg.PAC.ResolveTimeout = pac.DefaultResolveTimeout
	cfg.PAC.ResolveCacheSize = pac.DefaultResolveCacheSize
	cfg.PAC.ResolveCacheTTL = pac.DefaultResolveCacheTTL

	// Server defaults
	cfg.Server.Address = DefaultServerAddress
	cfg.Server.Transport = schema.TransportTCP
	cfg.Server.ConnectTimeout = tunnel.DefaultConnectTimeout
	cfg.Server.MaxPayload = parser.DefaultMaxPayload

	return nil
}

// GetDefaultConfig returns a fully initialized default configuration
func GetDefaultConfig() *schema.Root {
	cfg := &schema.Root{}
	source := NewDefaultSource()
	_ = source.LoadInto(cfg)
	return cfg
}
