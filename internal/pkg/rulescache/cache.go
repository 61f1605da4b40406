package rulescache

import (
	"context"
	"sync"
	"time"

	"monstro-self/internal/pkg/log"
	"monstro-self/internal/pkg/metrics"
)

const cacheName = "battle_rules"

// Rules 描述一局战斗使用的规则快照。
// 数值来自环境变量配置，进程内缓存，TTL 到期后重新加载。
type Rules struct {
	// 回合计时
	TurnLimitMs int64 // 回合预算（毫秒）
	GraceMs     int64 // 网络抖动宽限（毫秒）

	// 记录生命周期
	RecordTTL time.Duration // 战斗记录在 Redis 中的存活时间
	LockTTL   time.Duration // 回合锁的存活时间

	// 耐力经济（按动作分支回复）
	StaminaRegenAttack  int
	StaminaRegenDefense int
	StaminaRegenPass    int

	// 结算成本
	SatietyCost int // 每只怪兽扣除的饱食度
	EnergyCost  int // 每个玩家扣除的精力

	// 经验奖励
	WinnerExp int
	LoserExp  int

	// 闪避上限
	EvasionCap float64

	// 胜者掉落
	FoodDropRate    float64
	FoodQtyMax      int
	SkillDropRate   float64
	MutagenDropRate float64
}

// Loader 从配置源加载规则（通常是环境变量）。
type Loader func(ctx context.Context) (Rules, error)

type entry struct {
	value     Rules
	expiresAt time.Time
}

// Cache 提供线程安全的规则缓存，避免每回合重复解析配置。
type Cache struct {
	ttl     time.Duration
	loader  Loader
	metrics *metrics.CacheMetrics
	logger  log.Logger
	clock   func() time.Time
	mu      sync.RWMutex
	cached  *entry
}

// New 返回默认 Cache 实例。
func New(ttl time.Duration, loader Loader, m *metrics.CacheMetrics, logger log.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if m == nil {
		m = metrics.DefaultCacheMetrics
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Cache{
		ttl:     ttl,
		loader:  loader,
		metrics: m,
		logger:  logger.With("component", "rules_cache"),
		clock:   time.Now,
	}
}

// Get 返回当前规则，缓存过期时通过 loader 重新加载。
func (c *Cache) Get(ctx context.Context) (Rules, error) {
	service := metrics.GetServiceName()

	c.mu.RLock()
	cached := c.cached
	c.mu.RUnlock()

	now := c.clock()
	if cached != nil && now.Before(cached.expiresAt) {
		c.metrics.IncCacheHit(service, cacheName)
		return cached.value, nil
	}

	if cached != nil {
		c.metrics.IncCacheEvicted(service, cacheName, "expired")
	}
	c.metrics.IncCacheMiss(service, cacheName)

	start := now
	rules, err := c.loader(ctx)
	c.metrics.ObserveLoadDuration(service, cacheName, c.clock().Sub(start))
	if err != nil {
		// 加载失败时继续沿用过期值，规则短暂滞后好过战斗不可用
		if cached != nil {
			c.logger.WarnContext(ctx, "rules reload failed, serving stale rules",
				log.Any("error", err))
			return cached.value, nil
		}
		return Rules{}, err
	}

	c.mu.Lock()
	c.cached = &entry{
		value:     rules,
		expiresAt: c.clock().Add(c.ttl),
	}
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "battle rules loaded",
		log.Int64("turn_limit_ms", rules.TurnLimitMs),
		log.Int64("grace_ms", rules.GraceMs))
	return rules, nil
}

// Invalidate 主动剔除缓存（例如运营调参后强制生效）。
func (c *Cache) Invalidate(ctx context.Context, reason string) {
	c.mu.Lock()
	had := c.cached != nil
	c.cached = nil
	c.mu.Unlock()

	if had {
		c.metrics.IncCacheEvicted(metrics.GetServiceName(), cacheName, reason)
		c.logger.InfoContext(ctx, "battle rules cache invalidated",
			log.String("reason", reason))
	}
}
