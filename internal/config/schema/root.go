// Package schema defines configuration structure types
package schema

// Root is the top-level configuration structure
type Root struct {
	Log    LogConfig    `yaml:"log" json:"log"`
	PAC    PACConfig    `yaml:"pac" json:"pac"`
	Server ServerConfig `yaml:"server" json:"server"`
}
