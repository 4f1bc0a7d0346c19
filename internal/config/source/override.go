package source

import "flyingsocks-core/internal/config/schema"

// OverrideSource applies values set on the command line
type OverrideSource struct {
	apply func(cfg *schema.Root)
}

// NewOverrideSource creates an OverrideSource, apply may be nil
func NewOverrideSource(apply func(cfg *schema.Root)) *OverrideSource {
	return &OverrideSource{apply: apply}
}

// Name returns the source name
func (s *OverrideSource) Name() string {
	return "cli"
}

// Priority returns the source priority
func (s *OverrideSource) Priority() int {
	return PriorityCLI
}

// LoadInto applies the overrides
func (s *OverrideSource) LoadInto(cfg *schema.Root) error {
	if s.apply != nil {
		s.apply(cfg)
	}
	return nil
}
