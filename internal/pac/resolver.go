package pac

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	coreerrors "flyingsocks-core/internal/core/errors"
)

const (
	DefaultResolveTimeout   = 3 * time.Second
	DefaultResolveCacheSize = 4096
	DefaultResolveCacheTTL  = 5 * time.Minute
)

// Resolver 主机名解析接口
//
// NON_CHINA 模式下 NeedProxy 唯一可能阻塞的地方，实现必须遵守 ctx 的截止时间
type Resolver interface {
	Resolve(ctx context.Context, host string) (netip.Addr, error)
}

// ResolverFunc 函数适配器
type ResolverFunc func(ctx context.Context, host string) (netip.Addr, error)

// Resolve 调用函数本身
func (f ResolverFunc) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	return f(ctx, host)
}

// NetResolver 基于 net.Resolver 的解析器，每次解析都带超时
type NetResolver struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewNetResolver 创建解析器，timeout <= 0 时使用默认超时
func NewNetResolver(timeout time.Duration) *NetResolver {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	return &NetResolver{
		resolver: net.DefaultResolver,
		timeout:  timeout,
	}
}

// Resolve 返回解析结果中的首个 IPv4 地址，没有 IPv4 时返回第一个地址
func (r *NetResolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return netip.Addr{}, coreerrors.Wrapf(err, coreerrors.CodeTimeout, "resolve %s timed out after %s", host, r.timeout)
		}
		return netip.Addr{}, coreerrors.Wrapf(err, coreerrors.CodeNetworkError, "unknown host name %s", host)
	}
	if len(addrs) == 0 {
		return netip.Addr{}, coreerrors.Newf(coreerrors.CodeNotFound, "no address for host %s", host)
	}
	return preferIPv4(addrs), nil
}

// preferIPv4 双栈结果中优先取 IPv4，系统按 RFC 6724 排序时 IPv6 可能排在前面
func preferIPv4(addrs []netip.Addr) netip.Addr {
	for _, a := range addrs {
		if a.Is4() || a.Is4In6() {
			return a.Unmap()
		}
	}
	return addrs[0].Unmap()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// CachingResolver 带 TTL 缓存和并发合并的解析器
//
// 只缓存成功结果；同一主机的并发解析只会真正执行一次
type CachingResolver struct {
	next  Resolver
	cache *expirable.LRU[string, netip.Addr]
	sf    singleflight.Group
}

// NewCachingResolver 包装解析器
func NewCachingResolver(next Resolver, size int, ttl time.Duration) *CachingResolver {
	if size <= 0 {
		size = DefaultResolveCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultResolveCacheTTL
	}
	return &CachingResolver{
		next:  next,
		cache: expirable.NewLRU[string, netip.Addr](size, nil, ttl),
	}
}

// Resolve 优先从缓存读取
func (r *CachingResolver) Resolve(ctx context.Context, host string) (netip.Addr, error) {
	if addr, ok := r.cache.Get(host); ok {
		return addr, nil
	}

	ch := r.sf.DoChan(host, func() (interface{}, error) {
		addr, err := r.next.Resolve(context.WithoutCancel(ctx), host)
		if err != nil {
			return netip.Addr{}, err
		}
		r.cache.Add(host, addr)
		return addr, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return netip.Addr{}, res.Err
		}
		return res.Val.(netip.Addr), nil
	case <-ctx.Done():
		return netip.Addr{}, coreerrors.Wrapf(ctx.Err(), coreerrors.CodeTimeout, "resolve %s canceled", host)
	}
}

// Purge 清空缓存，规则重新加载时调用
func (r *CachingResolver) Purge() {
	r.cache.Purge()
}

// Len 返回缓存条目数
func (r *CachingResolver) Len() int {
	return r.cache.Len()
}
