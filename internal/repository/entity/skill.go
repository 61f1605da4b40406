package entity

import (
	"time"

	"github.com/aarondl/sqlboiler/v4/types"
)

// 技能类型常量
const (
	SkillKindAttack  = "attack"
	SkillKindDefense = "defense"
)

// Skill 数据库技能实体（game_config 配置表）
type Skill struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Kind string `db:"kind" json:"kind"`

	// 修正系数（decimal，避免浮点漂移）
	StrengthModifier types.Decimal `db:"strength_modifier" json:"strength_modifier"`
	DefenseModifier  types.Decimal `db:"defense_modifier" json:"defense_modifier"`
	EvasionModifier  types.Decimal `db:"evasion_modifier" json:"evasion_modifier"`

	// 使用成本
	EnergyCost int `db:"energy_cost" json:"energy_cost"`
	Cooldown   int `db:"cooldown" json:"cooldown"`

	// 基础技能：所有怪兽天生掌握，不进入掉落池
	IsBase bool `db:"is_base" json:"is_base"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TableName 返回表名
func (Skill) TableName() string {
	return "game_config.skills"
}

// IsAttack 检查是否为攻击技能
func (s *Skill) IsAttack() bool {
	return s.Kind == SkillKindAttack
}

// MonsterSkill 怪兽已习得技能
type MonsterSkill struct {
	ID        string    `db:"id" json:"id"`
	MonsterID string    `db:"monster_id" json:"monster_id"`
	SkillID   string    `db:"skill_id" json:"skill_id"`
	LearnedAt time.Time `db:"learned_at" json:"learned_at"`
}

// TableName 返回表名
func (MonsterSkill) TableName() string {
	return "game_runtime.monster_skills"
}
