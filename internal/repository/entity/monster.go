package entity

import (
	"database/sql"
	"time"
)

// Monster 数据库怪兽实体
type Monster struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Name   string `db:"name" json:"name"`

	// 成长
	Level      int `db:"level" json:"level"`
	Experience int `db:"experience" json:"experience"`

	// 战斗基础属性（创建战斗时快照进战斗记录）
	HP         int `db:"hp" json:"hp"`
	MaxHP      int `db:"max_hp" json:"max_hp"`
	Stamina    int `db:"stamina" json:"stamina"`
	MaxStamina int `db:"max_stamina" json:"max_stamina"`
	Strength   int `db:"strength" json:"strength"`
	Defense    int `db:"defense" json:"defense"`
	Evasion    int `db:"evasion" json:"evasion"`

	// 养成资源
	Satiety int `db:"satiety" json:"satiety"`

	// 时间戳
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
	DeletedAt sql.NullTime `db:"deleted_at" json:"deleted_at,omitempty"`
}

// TableName 返回表名
func (Monster) TableName() string {
	return "game_runtime.monsters"
}

// IsDeleted 检查怪兽是否被软删除
func (m *Monster) IsDeleted() bool {
	return m.DeletedAt.Valid
}

// CanAffordSatiety 检查饱食度是否足够参战
func (m *Monster) CanAffordSatiety(cost int) bool {
	return m.Satiety >= cost
}
