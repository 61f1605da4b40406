package entity

import "time"

// 战斗事件类型常量
const (
	BattleEventSummary = "battle_summary"
	BattleEventTurn    = "battle_turn"
)

// BattleEvent 战斗审计事件（结算管线尽力写入，一条摘要 + 每回合一条）
type BattleEvent struct {
	ID        string    `db:"id" json:"id"`
	BattleID  string    `db:"battle_id" json:"battle_id"`
	EventType string    `db:"event_type" json:"event_type"`
	Payload   []byte    `db:"payload" json:"payload"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TableName 返回表名
func (BattleEvent) TableName() string {
	return "game_runtime.battle_events"
}
