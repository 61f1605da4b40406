package interfaces

import (
	"context"

	"github.com/aarondl/sqlboiler/v4/boil"

	"monstro-self/internal/repository/entity"
)

// FoodRepository 食物仓储接口
type FoodRepository interface {
	// List 获取全部食物配置（掉落池）
	List(ctx context.Context) ([]*entity.Food, error)
	// GrantToUser 为用户发放食物（累加数量）
	GrantToUser(ctx context.Context, userID, foodID string, quantity int) error
	// GrantToUserTx 在事务内发放食物
	GrantToUserTx(ctx context.Context, exec boil.ContextExecutor, userID, foodID string, quantity int) error
}

// MutagenRepository 诱变剂仓储接口
type MutagenRepository interface {
	// List 获取全部诱变剂配置（掉落池）
	List(ctx context.Context) ([]*entity.Mutagen, error)
	// GrantToMonster 为怪兽发放诱变剂
	GrantToMonster(ctx context.Context, monsterID, mutagenID string) error
}
