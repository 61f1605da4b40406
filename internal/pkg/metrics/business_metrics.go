// File: internal/pkg/metrics/business_metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics 战斗业务指标收集器
type BusinessMetrics struct {
	// 进行中的战斗数（Gauge 类型，可增可减）
	ActiveBattles *prometheus.GaugeVec

	// 战斗完成次数（按结束方式分组：knockout/expired）
	BattlesTotal *prometheus.CounterVec

	// 战斗总时长直方图（从创建到结束）
	BattleDuration *prometheus.HistogramVec

	// 回合数（按动作类型分组：attack/defense/attack_defense/pass/auto_pass）
	BattleTurnsTotal *prometheus.CounterVec

	// 奖励发放数（按奖励类型分组：food/skill/mutagen/experience）
	RewardsGrantedTotal *prometheus.CounterVec
}

var (
	// DefaultBusinessMetrics 默认的业务指标实例
	DefaultBusinessMetrics *BusinessMetrics
)

// BattleBuckets 是针对战斗总时长优化的 buckets
// 回合制战斗预期时长: 数十秒到数十分钟，记录上限为 TTL（30分钟）
// 单位：秒
var BattleBuckets = []float64{
	15,   // 15s
	30,   // 30s
	60,   // 1分钟
	120,  // 2分钟
	300,  // 5分钟
	600,  // 10分钟
	1200, // 20分钟
	1800, // 30分钟（TTL 上限）
}

// init 初始化默认指标
func init() {
	DefaultBusinessMetrics = NewBusinessMetrics("monstro")
}

// NewBusinessMetrics 创建新的业务指标收集器
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return NewBusinessMetricsWithRegistry(namespace, GetRegisterer())
}

// NewBusinessMetricsWithRegistry 创建新的业务指标收集器（使用自定义注册表）
func NewBusinessMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(registerer)

	return &BusinessMetrics{
		ActiveBattles: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "active_battles",
				Help:      "Current number of battles with a live record",
			},
			[]string{"service"},
		),

		BattlesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "battles_total",
				Help:      "Total number of finished battles by outcome (knockout/expired)",
			},
			[]string{"outcome", "service"},
		),

		BattleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "battle_duration_seconds",
				Help:      "Battle duration from creation to completion in seconds",
				Buckets:   BattleBuckets,
			},
			[]string{"service"},
		),

		BattleTurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "turns_total",
				Help:      "Total number of resolved turns by action kind",
			},
			[]string{"action", "service"},
		),

		RewardsGrantedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "battle",
				Name:      "rewards_granted_total",
				Help:      "Total number of rewards granted by kind (food/skill/mutagen/experience)",
			},
			[]string{"kind", "service"},
		),
	}
}

// RecordBattleFinished 记录战斗完成指标
//
// 参数:
//   - outcome: 结束方式 ("knockout", "expired")
//   - duration: 从创建到结束的时长
//   - service: 服务名称
func (m *BusinessMetrics) RecordBattleFinished(outcome string, duration time.Duration, service string) {
	service = normalizeServiceName(service)
	m.BattlesTotal.WithLabelValues(outcome, service).Inc()
	m.BattleDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordTurn 记录回合指标
//
// 参数:
//   - action: 动作类型 ("attack", "defense", "attack_defense", "pass", "auto_pass")
//   - service: 服务名称
func (m *BusinessMetrics) RecordTurn(action, service string) {
	service = normalizeServiceName(service)
	m.BattleTurnsTotal.WithLabelValues(action, service).Inc()
}

// RecordRewardGranted 记录奖励发放
//
// 参数:
//   - kind: 奖励类型 ("food", "skill", "mutagen", "experience")
//   - service: 服务名称
func (m *BusinessMetrics) RecordRewardGranted(kind, service string) {
	service = normalizeServiceName(service)
	m.RewardsGrantedTotal.WithLabelValues(kind, service).Inc()
}

// IncActiveBattles 增加进行中的战斗数
func (m *BusinessMetrics) IncActiveBattles(service string) {
	service = normalizeServiceName(service)
	m.ActiveBattles.WithLabelValues(service).Inc()
}

// DecActiveBattles 减少进行中的战斗数
func (m *BusinessMetrics) DecActiveBattles(service string) {
	service = normalizeServiceName(service)
	m.ActiveBattles.WithLabelValues(service).Dec()
}
