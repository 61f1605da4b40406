package service

import "monstro-self/internal/pkg/rulescache"

// 回合计时是惰性求值的：没有后台扫描器，超时在下一次动作提交时才结算。
// 没人出手的过期回合会一直挂着，直到任意一方触发解算。

// EnsureTurnTiming 补全回合计时字段
// 老记录可能缺少 turn_ends_at_ms：有起点则由起点+预算推导，否则以当前时间重新起表
func EnsureTurnTiming(record *BattleRecord, rules rulescache.Rules, nowMs int64) {
	if record.TurnLimitMs <= 0 {
		record.TurnLimitMs = rules.TurnLimitMs
	}
	if record.GraceMs <= 0 {
		record.GraceMs = rules.GraceMs
	}
	if record.TurnEndsAtMs > 0 {
		return
	}
	if record.TurnStartMs > 0 {
		record.TurnEndsAtMs = record.TurnStartMs + record.TurnLimitMs
		return
	}
	record.TurnStartMs = nowMs
	record.TurnEndsAtMs = nowMs + record.TurnLimitMs
}

// IsTurnExpired 检查回合是否已越过宽限窗口
// 宽限是对网络抖动的容忍，不是硬截止
func IsTurnExpired(record *BattleRecord, nowMs int64) bool {
	return nowMs > record.TurnEndsAtMs+record.GraceMs
}

// ResetTurnTiming 为新回合重置计时
func ResetTurnTiming(record *BattleRecord, rules rulescache.Rules, nowMs int64) {
	record.TurnLimitMs = rules.TurnLimitMs
	record.GraceMs = rules.GraceMs
	record.TurnStartMs = nowMs
	record.TurnEndsAtMs = nowMs + record.TurnLimitMs
}
