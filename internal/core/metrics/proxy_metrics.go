package metrics

// 代理决策与隧道相关指标，m 为 nil 时均为空操作

const (
	NameDecisions      = "pac_decisions"
	NameDials          = "tunnel_dials"
	NameDialErrors     = "tunnel_dial_errors"
	NameActiveTunnels  = "tunnel_active"
	NameTunnelSent     = "tunnel_bytes_sent"
	NameTunnelReceived = "tunnel_bytes_received"

	RouteProxy  = "proxy"
	RouteDirect = "direct"
)

// Route 将代理决策转换为路由标签
func Route(needProxy bool) string {
	if needProxy {
		return RouteProxy
	}
	return RouteDirect
}

// RecordDecision 记录一次代理决策
func RecordDecision(m Metrics, mode string, needProxy bool) {
	if m == nil {
		return
	}
	_ = m.IncrementCounter(NameDecisions, map[string]string{"mode": mode, "route": Route(needProxy)})
}

// DecisionCount 返回指定模式下某路由的决策次数
func DecisionCount(m Metrics, mode string, needProxy bool) int64 {
	if m == nil {
		return 0
	}
	v, _ := m.GetCounter(NameDecisions, map[string]string{"mode": mode, "route": Route(needProxy)})
	return int64(v)
}

// RecordDial 记录一次拨号及其结果
func RecordDial(m Metrics, route, network string, err error) {
	if m == nil {
		return
	}
	labels := map[string]string{"route": route, "network": network}
	_ = m.IncrementCounter(NameDials, labels)
	if err != nil {
		_ = m.IncrementCounter(NameDialErrors, labels)
	}
}

// SetActiveTunnels 设置活跃隧道数
func SetActiveTunnels(m Metrics, count int) {
	if m == nil {
		return
	}
	_ = m.SetGauge(NameActiveTunnels, float64(count), nil)
}

// RecordTunnelTraffic 累加隧道关闭时的收发字节数
func RecordTunnelTraffic(m Metrics, sent, received int64) {
	if m == nil {
		return
	}
	_ = m.AddCounter(NameTunnelSent, float64(sent), nil)
	_ = m.AddCounter(NameTunnelReceived, float64(received), nil)
}
