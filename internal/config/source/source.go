// Package source provides configuration source abstractions and implementations
package source

import (
	"flyingsocks-core/internal/config/schema"
)

// Source is the interface for configuration sources
// Each source loads configuration into a strongly-typed Root structure
type Source interface {
	// Name returns the source name for logging and error messages
	Name() string

	// Priority returns the source priority (higher = more important)
	// Priority order:
	// 1 - Default values (lowest)
	// 2 - YAML files
	// 3 - Environment variables
	// 4 - CLI flags (highest)
	Priority() int

	// LoadInto loads configuration into the provided config structure
	// Only values present in the source are set, preserving values from lower-priority sources
	LoadInto(cfg *schema.Root) error
}

// SourcePriority constants
const (
	PriorityDefaults = 1
	PriorityYAML     = 2
	PriorityEnv      = 3
	PriorityCLI      = 4
)

// ByPriority implements sort.Interface for []Source based on Priority
type ByPriority []Source

func (a ByPriority) Len() int           { return len(a) }
func (a ByPriority) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a ByPriority) Less(i, j int) bool { return a[i].Priority() < a[j].Priority() }
