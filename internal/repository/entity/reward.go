package entity

import (
	"time"

	"github.com/aarondl/sqlboiler/v4/types"
)

// Food 数据库食物实体（game_config 配置表）
type Food struct {
	ID             string    `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	SatietyRestore int       `db:"satiety_restore" json:"satiety_restore"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// TableName 返回表名
func (Food) TableName() string {
	return "game_config.foods"
}

// UserFood 用户持有的食物数量
type UserFood struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FoodID    string    `db:"food_id" json:"food_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TableName 返回表名
func (UserFood) TableName() string {
	return "game_runtime.user_foods"
}

// Mutagen 数据库诱变剂实体（game_config 配置表）
type Mutagen struct {
	ID        string        `db:"id" json:"id"`
	Name      string        `db:"name" json:"name"`
	DropRate  types.Decimal `db:"drop_rate" json:"drop_rate"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// TableName 返回表名
func (Mutagen) TableName() string {
	return "game_config.mutagens"
}

// MonsterMutagen 怪兽获得的诱变剂
type MonsterMutagen struct {
	ID        string    `db:"id" json:"id"`
	MonsterID string    `db:"monster_id" json:"monster_id"`
	MutagenID string    `db:"mutagen_id" json:"mutagen_id"`
	GrantedAt time.Time `db:"granted_at" json:"granted_at"`
}

// TableName 返回表名
func (MonsterMutagen) TableName() string {
	return "game_runtime.monster_mutagens"
}
