package schema

import "time"

// PACConfig contains proxy decision settings
type PACConfig struct {
	Dir              string        `yaml:"dir" json:"dir"`                           // directory holding rule files and the mode file
	DomainListFile   string        `yaml:"domain_list_file" json:"domain_list_file"` // proxied domains and IPs
	WhitelistFile    string        `yaml:"whitelist_file" json:"whitelist_file"`     // direct IPv4 CIDR ranges
	ModeFile         string        `yaml:"mode_file" json:"mode_file"`
	ResolveTimeout   time.Duration `yaml:"resolve_timeout" json:"resolve_timeout"`
	ResolveCacheSize int           `yaml:"resolve_cache_size" json:"resolve_cache_size"`
	ResolveCacheTTL  time.Duration `yaml:"resolve_cache_ttl" json:"resolve_cache_ttl"`
}
