package pac

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	coreerrors "flyingsocks-core/internal/core/errors"
	corelog "flyingsocks-core/internal/core/log"
	"flyingsocks-core/internal/core/metrics"
	"flyingsocks-core/internal/utils"
)

// 默认文件名
const (
	DefaultDomainListFile = "pac.txt"
	DefaultWhitelistFile  = "cnipv4.txt"
	DefaultModeFile       = "pac-setting"
)

// Options 规则文件与解析参数
type Options struct {
	Dir              string
	DomainListFile   string
	WhitelistFile    string
	ModeFile         string
	ResolveTimeout   time.Duration
	ResolveCacheSize int
	ResolveCacheTTL  time.Duration
}

func (o *Options) applyDefaults() {
	if o.DomainListFile == "" {
		o.DomainListFile = DefaultDomainListFile
	}
	if o.WhitelistFile == "" {
		o.WhitelistFile = DefaultWhitelistFile
	}
	if o.ModeFile == "" {
		o.ModeFile = DefaultModeFile
	}
	if o.ResolveTimeout <= 0 {
		o.ResolveTimeout = DefaultResolveTimeout
	}
}

// Config 代理模式配置：负责加载规则文件、构建引擎并持久化模式切换
type Config struct {
	engine *Engine
	store  ModeStore
	logger corelog.Logger

	domainListPath string
	whitelistPath  string

	cache *CachingResolver

	mu sync.Mutex
}

// ConfigOption Config 选项
type ConfigOption func(*configBuild)

type configBuild struct {
	resolver Resolver
	store    ModeStore
	logger   corelog.Logger
	metrics  metrics.Metrics
}

// WithConfigResolver 替换默认解析器（不再套用缓存）
func WithConfigResolver(r Resolver) ConfigOption {
	return func(b *configBuild) { b.resolver = r }
}

// WithModeStore 替换模式存储
func WithModeStore(s ModeStore) ConfigOption {
	return func(b *configBuild) { b.store = s }
}

// WithConfigLogger 设置日志
func WithConfigLogger(l corelog.Logger) ConfigOption {
	return func(b *configBuild) { b.logger = l }
}

// WithConfigMetrics 设置引擎的决策计数
func WithConfigMetrics(m metrics.Metrics) ConfigOption {
	return func(b *configBuild) { b.metrics = m }
}

// Load 从目录加载规则文件与模式文件并创建引擎
//
// 规则文件缺失属于配置错误，在引擎创建之前返回
func Load(opts Options, options ...ConfigOption) (*Config, error) {
	opts.applyDefaults()

	b := &configBuild{}
	for _, o := range options {
		o(b)
	}
	if b.logger == nil {
		b.logger = corelog.Default()
	}

	dir, err := utils.ExpandPath(opts.Dir)
	if err != nil {
		return nil, coreerrors.Wrap(err, coreerrors.CodeConfigError, "invalid pac directory")
	}

	c := &Config{
		logger:         b.logger,
		domainListPath: filepath.Join(dir, opts.DomainListFile),
		whitelistPath:  filepath.Join(dir, opts.WhitelistFile),
	}

	resolver := b.resolver
	if resolver == nil {
		c.cache = NewCachingResolver(NewNetResolver(opts.ResolveTimeout), opts.ResolveCacheSize, opts.ResolveCacheTTL)
		resolver = c.cache
	}

	c.store = b.store
	if c.store == nil {
		c.store = NewFileModeStore(filepath.Join(dir, opts.ModeFile), b.logger)
	}

	domains, err := c.loadDomainRules()
	if err != nil {
		return nil, err
	}
	whitelist, err := c.loadWhitelist()
	if err != nil {
		return nil, err
	}

	mode, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	c.engine, err = NewEngine(mode,
		WithResolver(resolver),
		WithLogger(b.logger),
		WithDomainRules(domains),
		WithWhitelist(whitelist),
		WithMetrics(b.metrics),
	)
	if err != nil {
		return nil, err
	}

	b.logger.WithField(corelog.FieldMode, mode.Tag()).Infof("pac config loaded, proxy mode %s", mode)
	return c, nil
}

func (c *Config) loadDomainRules() (*DomainRuleSet, error) {
	f, err := openRuleFile(c.domainListPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set, err := ParseDomainRuleSet(f)
	if err != nil {
		return nil, err
	}
	c.logger.WithField(corelog.FieldFile, c.domainListPath).
		WithField(corelog.FieldSize, set.Len()).
		Infof("GFWList size: %d", set.Len())
	return set, nil
}

func (c *Config) loadWhitelist() (*WhitelistTable, error) {
	f, err := openRuleFile(c.whitelistPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table, err := ParseWhitelistTable(f)
	if err != nil {
		return nil, err
	}
	c.logger.WithField(corelog.FieldFile, c.whitelistPath).
		WithField(corelog.FieldSize, table.Len()).
		Infof("CNIPv4 list size: %d", table.Len())
	return table, nil
}

func openRuleFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, coreerrors.Wrapf(err, coreerrors.CodeConfigError, "rule file %s not found", path)
		}
		return nil, coreerrors.Wrapf(err, coreerrors.CodeStorageError, "failed to open rule file %s", path)
	}
	return f, nil
}

// NewModeConfig 只从模式存储创建配置，规则集为空
//
// 用于只查看或切换模式而不需要规则文件的场景，Reload 返回 CodeInvalidState
func NewModeConfig(store ModeStore, logger corelog.Logger) (*Config, error) {
	if store == nil {
		return nil, coreerrors.New(coreerrors.CodeInvalidParam, "mode store is nil")
	}
	if logger == nil {
		logger = corelog.Default()
	}
	mode, err := store.Load()
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(mode, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Config{engine: engine, store: store, logger: logger}, nil
}

// Engine 返回决策引擎
func (c *Config) Engine() *Engine {
	return c.engine
}

// ProxyMode 返回当前代理模式
func (c *Config) ProxyMode() Mode {
	return c.engine.ProxyMode()
}

// SetProxyMode 切换并持久化代理模式，与当前模式相同时不做任何事
//
// 保存失败时引擎恢复为原模式，内存与模式文件保持一致
func (c *Config) SetProxyMode(mode Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.engine.ProxyMode()
	if old == mode {
		return nil
	}
	if err := c.engine.ChangeProxyMode(mode); err != nil {
		return err
	}
	if err := c.store.Save(mode); err != nil {
		_ = c.engine.ChangeProxyMode(old)
		return coreerrors.Wrap(err, coreerrors.CodeStorageError, "failed to save proxy mode")
	}
	return nil
}

// Reload 重新读取两份规则文件并整体替换；任一文件失败时保持原规则不变
func (c *Config) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.domainListPath == "" || c.whitelistPath == "" {
		return coreerrors.New(coreerrors.CodeInvalidState, "config was created without rule files")
	}

	domains, err := c.loadDomainRules()
	if err != nil {
		return err
	}
	whitelist, err := c.loadWhitelist()
	if err != nil {
		return err
	}

	c.engine.ReplaceDomainRules(domains)
	c.engine.ReplaceWhitelist(whitelist)
	if c.cache != nil {
		c.cache.Purge()
	}
	return nil
}
