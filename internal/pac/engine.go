// Package pac 实现代理自动决策：根据当前代理模式判断目标主机是否需要经过代理
package pac

import (
	"context"
	"sync/atomic"

	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/core/metrics"
	"flyingsocks-core/internal/utils/netaddr"
)

// Checker 代理决策接口
type Checker interface {
	// NeedProxy 判断访问 host 是否需要经过代理
	NeedProxy(ctx context.Context, host string) (bool, error)

	// ProxyMode 返回当前代理模式
	ProxyMode() Mode

	// ChangeProxyMode 切换代理模式
	ChangeProxyMode(mode Mode) error
}

// Engine 代理决策引擎
//
// 模式为单字原子变量；规则集与白名单为不可变快照，重新加载时整体替换，
// 进行中的判断继续使用旧快照。
type Engine struct {
	mode      atomic.Int32
	domains   atomic.Pointer[DomainRuleSet]
	whitelist atomic.Pointer[WhitelistTable]

	resolver Resolver
	logger   corelog.Logger
	metrics  metrics.Metrics
}

// EngineOption 引擎选项
type EngineOption func(*Engine)

// WithResolver 设置主机名解析器
func WithResolver(r Resolver) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.resolver = r
		}
	}
}

// WithLogger 设置日志
func WithLogger(l corelog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics 设置决策计数
func WithMetrics(m metrics.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDomainRules 设置初始规则集
func WithDomainRules(s *DomainRuleSet) EngineOption {
	return func(e *Engine) {
		if s != nil {
			e.domains.Store(s)
		}
	}
}

// WithWhitelist 设置初始白名单
func WithWhitelist(t *WhitelistTable) EngineOption {
	return func(e *Engine) {
		if t != nil {
			e.whitelist.Store(t)
		}
	}
}

// NewEngine 创建决策引擎，mode 非法时返回错误
func NewEngine(mode Mode, opts ...EngineOption) (*Engine, error) {
	if !mode.IsValid() {
		return nil, coreerrors.Newf(coreerrors.CodeInvalidParam, "proxy mode %d is not correct", int32(mode))
	}

	e := &Engine{
		resolver: NewNetResolver(DefaultResolveTimeout),
		logger:   corelog.Default(),
	}
	e.mode.Store(int32(mode))
	e.domains.Store(EmptyDomainRuleSet())
	e.whitelist.Store(EmptyWhitelistTable())

	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NeedProxy 判断访问 host 是否需要经过代理
//
// NON_CHINA 模式下对主机名的解析可能阻塞，调用方不应在共享的 I/O 循环中直接调用。
// 解析失败或超时按直连处理并记录告警；解析得到 IPv6 地址时一律代理。
func (e *Engine) NeedProxy(ctx context.Context, host string) (bool, error) {
	mode := Mode(e.mode.Load())
	need, err := e.decide(ctx, mode, host)
	if err == nil {
		metrics.RecordDecision(e.metrics, mode.Tag(), need)
	}
	return need, err
}

func (e *Engine) decide(ctx context.Context, mode Mode, host string) (bool, error) {
	switch mode {
	case ModeNone:
		return false, nil

	case ModeGlobal:
		return true, nil

	case ModeDomainList:
		rules := e.domains.Load()
		if netaddr.IsIPAddress(host) {
			return rules.MatchIP(host), nil
		}
		return rules.MatchHost(host), nil

	case ModeNonChina:
		var ip uint32
		switch {
		case netaddr.IsHostName(host):
			addr, err := e.resolver.Resolve(ctx, host)
			if err != nil {
				e.logger.WithField(corelog.FieldHost, host).WithError(err).Warnf("Unknown host name %s", host)
				return false, nil
			}
			if !addr.Is4() {
				return true, nil
			}
			b := addr.As4()
			ip, _ = netaddr.IPv4BytesToUint32(b[:])

		case netaddr.IsIPv4Address(host):
			ip, _ = netaddr.ParseIPv4ToUint32(host)

		default:
			// IPv6 字面地址不在白名单覆盖范围内
			return true, nil
		}
		return !e.whitelist.Load().Contains(ip), nil

	default:
		return false, coreerrors.Newf(coreerrors.CodeInvalidState, "proxy mode is not correct: %d", int32(mode))
	}
}

// ProxyMode 返回当前代理模式
func (e *Engine) ProxyMode() Mode {
	return Mode(e.mode.Load())
}

// ChangeProxyMode 切换代理模式，非法模式返回 CodeInvalidParam 且不改变当前状态
func (e *Engine) ChangeProxyMode(mode Mode) error {
	if !mode.IsValid() {
		return coreerrors.Newf(coreerrors.CodeInvalidParam, "proxy mode %d is not correct", int32(mode))
	}
	old := Mode(e.mode.Swap(int32(mode)))
	if old != mode {
		e.logger.WithField(corelog.FieldMode, mode.Tag()).Infof("proxy mode changed from %s to %s", old, mode)
	}
	return nil
}

// DomainRules 返回当前规则集快照
func (e *Engine) DomainRules() *DomainRuleSet {
	return e.domains.Load()
}

// Whitelist 返回当前白名单快照
func (e *Engine) Whitelist() *WhitelistTable {
	return e.whitelist.Load()
}

// ReplaceDomainRules 原子替换规则集，nil 视为空集
func (e *Engine) ReplaceDomainRules(s *DomainRuleSet) {
	if s == nil {
		s = EmptyDomainRuleSet()
	}
	e.domains.Store(s)
}

// ReplaceWhitelist 原子替换白名单，nil 视为空表
func (e *Engine) ReplaceWhitelist(t *WhitelistTable) {
	if t == nil {
		t = EmptyWhitelistTable()
	}
	e.whitelist.Store(t)
}

var _ Checker = (*Engine)(nil)
