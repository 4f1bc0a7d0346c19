// Package transport 客户端到代理服务器的传输层协议注册表
// 支持通过 build tags 选择性编译协议支持
package transport

import (
	"context"
	"net"
	"sort"
	"sync"

	coreerrors "flyingsocks-core/internal/core/errors"
)

// Dialer 是协议拨号器的接口
type Dialer func(ctx context.Context, address string) (net.Conn, error)

// ProtocolInfo 协议信息
type ProtocolInfo struct {
	Name     string // 协议名称: tcp, websocket
	Priority int    // 优先级（数字越小优先级越高）
	Dialer   Dialer // 拨号函数
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*ProtocolInfo)
)

// RegisterProtocol 注册协议，同名协议会被覆盖
func RegisterProtocol(name string, priority int, dialer Dialer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = &ProtocolInfo{
		Name:     name,
		Priority: priority,
		Dialer:   dialer,
	}
}

// GetProtocol 获取协议信息
func GetProtocol(name string) (*ProtocolInfo, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[name]
	return info, ok
}

// GetRegisteredProtocols 获取所有已注册的协议（按优先级排序，优先级相同按名称）
func GetRegisteredProtocols() []*ProtocolInfo {
	registryMu.RLock()
	protocols := make([]*ProtocolInfo, 0, len(registry))
	for _, info := range registry {
		protocols = append(protocols, info)
	}
	registryMu.RUnlock()

	sort.Slice(protocols, func(i, j int) bool {
		if protocols[i].Priority != protocols[j].Priority {
			return protocols[i].Priority < protocols[j].Priority
		}
		return protocols[i].Name < protocols[j].Name
	})
	return protocols
}

// IsProtocolAvailable 检查协议是否可用
func IsProtocolAvailable(name string) bool {
	_, ok := GetProtocol(name)
	return ok
}

// Dial 使用指定协议连接代理服务器
func Dial(ctx context.Context, protocol, address string) (net.Conn, error) {
	info, ok := GetProtocol(protocol)
	if !ok {
		return nil, coreerrors.Newf(coreerrors.CodeProtocolError, "protocol %q is not available (not compiled in)", protocol)
	}
	return info.Dialer(ctx, address)
}

// GetAvailableProtocolNames 获取所有可用协议名称
func GetAvailableProtocolNames() []string {
	protocols := GetRegisteredProtocols()
	names := make([]string, len(protocols))
	for i, p := range protocols {
		names[i] = p.Name
	}
	return names
}
