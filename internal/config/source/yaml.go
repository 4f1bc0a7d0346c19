package source

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"flyingsocks-core/internal/config/schema"
	coreerrors "flyingsocks-core/internal/core/errors"
	"flyingsocks-core/internal/utils"
)

// YAMLSource loads configuration from YAML files
type YAMLSource struct {
	paths []string // list of YAML file paths to load
}

// NewYAMLSource creates a new YAMLSource with the specified file paths
func NewYAMLSource(paths ...string) *YAMLSource {
	return &YAMLSource{
		paths: paths,
	}
}

// Name returns the source name
func (s *YAMLSource) Name() string {
	return "yaml"
}

// Priority returns the source priority
func (s *YAMLSource) Priority() int {
	return PriorityYAML
}

// LoadInto loads YAML configuration into the config structure
// Files are loaded in order, with later files overriding earlier ones
func (s *YAMLSource) LoadInto(cfg *schema.Root) error {
	for _, path := range s.paths {
		if path == "" {
			continue
		}

		expandedPath, err := utils.ExpandPath(path)
		if err != nil {
			return err
		}

		// Skip non-existent files silently
		if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(expandedPath)
		if err != nil {
			return coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to read config file %q", expandedPath)
		}

		// Keys absent from the document keep their current values
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return coreerrors.Wrapf(err, coreerrors.CodeConfigError, "failed to parse YAML file %q", expandedPath)
		}
	}

	return nil
}

// FindConfigFile searches for a configuration file in standard locations
// Returns the first found file path, or empty string if none found
func FindConfigFile(configFile string) string {
	// If explicitly specified, use that
	if configFile != "" {
		expanded, err := utils.ExpandPath(configFile)
		if err == nil {
			return expanded
		}
		return configFile
	}

	searchPaths := []string{
		"./flyingsocks.yaml",
		"./config.yaml",
	}

	if execPath, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(filepath.Dir(execPath), "flyingsocks.yaml"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".flyingsocks", "config.yaml"))
	}

	for _, path := range searchPaths {
		expanded, err := utils.ExpandPath(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(expanded); err == nil {
			return expanded
		}
	}

	return ""
}
