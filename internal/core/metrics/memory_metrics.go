package metrics

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// MemoryMetrics 进程内指标实现
type MemoryMetrics struct {
	counters map[string]*atomic.Int64
	gauges   map[string]float64
	mu       sync.RWMutex
}

// NewMemoryMetrics 创建内存指标收集器
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		counters: make(map[string]*atomic.Int64),
		gauges:   make(map[string]float64),
	}
}

func (m *MemoryMetrics) counter(key string) *atomic.Int64 {
	m.mu.RLock()
	c, ok := m.counters[key]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[key]; !ok {
		c = new(atomic.Int64)
		m.counters[key] = c
	}
	return c
}

// IncrementCounter 计数器加一
func (m *MemoryMetrics) IncrementCounter(name string, labels map[string]string) error {
	m.counter(buildKey(name, labels)).Add(1)
	return nil
}

// AddCounter 计数器增加指定值，小数部分截断
func (m *MemoryMetrics) AddCounter(name string, value float64, labels map[string]string) error {
	m.counter(buildKey(name, labels)).Add(int64(value))
	return nil
}

// GetCounter 获取计数器值，不存在时返回 0
func (m *MemoryMetrics) GetCounter(name string, labels map[string]string) (float64, error) {
	key := buildKey(name, labels)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.counters[key]; ok {
		return float64(c.Load()), nil
	}
	return 0, nil
}

// SetGauge 设置 Gauge 值
func (m *MemoryMetrics) SetGauge(name string, value float64, labels map[string]string) error {
	key := buildKey(name, labels)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[key] = value
	return nil
}

// GetGauge 获取 Gauge 值
func (m *MemoryMetrics) GetGauge(name string, labels map[string]string) (float64, error) {
	key := buildKey(name, labels)
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[key], nil
}

// Close 关闭指标收集器
func (m *MemoryMetrics) Close() error {
	return nil
}

// buildKey 构建指标键名，标签按键名排序
func buildKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(labels[k])
	}
	sb.WriteByte('}')
	return sb.String()
}

var _ Metrics = (*MemoryMetrics)(nil)
