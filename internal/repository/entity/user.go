package entity

import (
	"database/sql"
	"time"
)

// User 数据库用户实体
type User struct {
	ID       string `db:"id" json:"id"`
	Username string `db:"username" json:"username"`

	// 精力：创建/接受战斗的资格门槛，战斗结束双方扣除
	Energy int `db:"energy" json:"energy"`

	// 用户状态管理
	IsBanned bool         `db:"is_banned" json:"is_banned"`
	BanUntil sql.NullTime `db:"ban_until" json:"ban_until,omitempty"`

	// 时间戳
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
	DeletedAt sql.NullTime `db:"deleted_at" json:"deleted_at,omitempty"`
}

// TableName 返回表名
func (User) TableName() string {
	return "users"
}

// IsDeleted 检查用户是否被软删除
func (u *User) IsDeleted() bool {
	return u.DeletedAt.Valid
}

// IsActive 检查用户是否活跃（未被删除且未被封禁）
func (u *User) IsActive() bool {
	if u.IsDeleted() || u.IsBanned {
		return false
	}

	// 检查封禁是否已过期
	if u.BanUntil.Valid && u.BanUntil.Time.After(time.Now()) {
		return false
	}

	return true
}

// CanAffordEnergy 检查精力是否足够
func (u *User) CanAffordEnergy(cost int) bool {
	return u.Energy >= cost
}
