package entity

import (
	"database/sql"
	"time"
)

// 战斗状态常量
const (
	BattleStatusPending  = "PENDING"
	BattleStatusAccepted = "ACCEPTED"
	BattleStatusRejected = "REJECTED"
	BattleStatusFinished = "FINISHED"
)

// MonsterBattle 数据库战斗实体（持久化侧，运行时状态在 Redis）
type MonsterBattle struct {
	ID                  string `db:"id" json:"id"`
	ChallengerMonsterID string `db:"challenger_monster_id" json:"challenger_monster_id"`
	OpponentMonsterID   string `db:"opponent_monster_id" json:"opponent_monster_id"`

	Status          string         `db:"status" json:"status"`
	WinnerMonsterID sql.NullString `db:"winner_monster_id" json:"winner_monster_id,omitempty"`

	// 结束时从战斗记录拷贝的完整回合日志
	BattleLog []byte `db:"battle_log" json:"battle_log,omitempty"`

	// 关联聊天（有值时结束后通知机器人）
	ChatID sql.NullString `db:"chat_id" json:"chat_id,omitempty"`

	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
	FinishedAt sql.NullTime `db:"finished_at" json:"finished_at,omitempty"`
}

// TableName 返回表名
func (MonsterBattle) TableName() string {
	return "game_runtime.monster_battles"
}

// IsFinished 检查战斗是否已结束
func (b *MonsterBattle) IsFinished() bool {
	return b.Status == BattleStatusFinished
}

// OtherMonsterID 返回对手怪兽 ID
func (b *MonsterBattle) OtherMonsterID(monsterID string) string {
	if monsterID == b.ChallengerMonsterID {
		return b.OpponentMonsterID
	}
	return b.ChallengerMonsterID
}
