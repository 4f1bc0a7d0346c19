package tunnel

import (
	"sort"
	"sync"

	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
)

// Manager 按序列号管理活动的隧道连接
type Manager struct {
	mu    sync.RWMutex
	conns map[int32]*Conn
}

// NewManager 创建隧道管理器
func NewManager() *Manager {
	return &Manager{conns: make(map[int32]*Conn)}
}

// Register 注册隧道
func (m *Manager) Register(conn *Conn) error {
	if conn == nil {
		return coreerrors.New(coreerrors.CodeInvalidParam, "tunnel is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.conns[conn.serialID]; exists {
		return coreerrors.Newf(coreerrors.CodeInvalidState, "tunnel already exists: %d", conn.serialID)
	}
	m.conns[conn.serialID] = conn
	return nil
}

// Unregister 注销隧道
func (m *Manager) Unregister(serialID int32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conns[serialID]; !ok {
		return false
	}
	delete(m.conns, serialID)
	return true
}

// Get 获取隧道
func (m *Manager) Get(serialID int32) *Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conns[serialID]
}

// List 按序列号升序列出所有隧道
func (m *Manager) List() []*Conn {
	m.mu.RLock()
	conns := make([]*Conn, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
	}
	m.mu.RUnlock()

	sort.Slice(conns, func(i, j int) bool { return conns[i].serialID < conns[j].serialID })
	return conns
}

// Count 统计隧道数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// CloseAll 关闭所有隧道
func (m *Manager) CloseAll() {
	conns := m.List()
	if len(conns) > 0 {
		corelog.Infof("TunnelManager: closing %d tunnels", len(conns))
	}
	for _, c := range conns {
		_ = c.close(CloseReasonContextCanceled)
	}
}
