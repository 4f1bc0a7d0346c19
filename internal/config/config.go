// Package config 把分层加载的配置映射为各组件的运行参数
package config

import (
	"flyingsocks-core/internal/client/tunnel"
	"flyingsocks-core/internal/config/loader"
	"flyingsocks-core/internal/config/schema"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/pac"
)

// Load 加载配置，configFile 为空时按默认位置查找
func Load(configFile string, overrides func(cfg *schema.Root)) (*schema.Root, error) {
	return loader.NewLoaderBuilder().
		WithConfigFile(configFile).
		WithOverrides(overrides).
		Build().
		Load()
}

// LogConfig 日志配置
func LogConfig(root *schema.Root) corelog.Config {
	return corelog.Config{
		Level:  root.Log.Level,
		Format: root.Log.Format,
		Output: root.Log.Output,
		File:   root.Log.File,
	}
}

// PACOptions 代理决策配置
func PACOptions(root *schema.Root) pac.Options {
	return pac.Options{
		Dir:              root.PAC.Dir,
		DomainListFile:   root.PAC.DomainListFile,
		WhitelistFile:    root.PAC.WhitelistFile,
		ModeFile:         root.PAC.ModeFile,
		ResolveTimeout:   root.PAC.ResolveTimeout,
		ResolveCacheSize: root.PAC.ResolveCacheSize,
		ResolveCacheTTL:  root.PAC.ResolveCacheTTL,
	}
}

// TunnelConfig 隧道拨号配置
func TunnelConfig(root *schema.Root) tunnel.Config {
	return tunnel.Config{
		ServerAddress:  root.Server.Address,
		Protocol:       root.Server.Transport,
		ConnectTimeout: root.Server.ConnectTimeout,
	}
}
