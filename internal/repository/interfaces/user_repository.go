package interfaces

import (
	"context"

	"github.com/aarondl/sqlboiler/v4/boil"

	"monstro-self/internal/repository/entity"
)

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetByID 根据ID获取用户
	GetByID(ctx context.Context, userID string) (*entity.User, error)
	// AddEnergy 调整用户精力（可为负，需确保不小于0）
	AddEnergy(ctx context.Context, userID string, delta int) error
	// AddEnergyTx 在事务内调整用户精力
	AddEnergyTx(ctx context.Context, exec boil.ContextExecutor, userID string, delta int) error
}
