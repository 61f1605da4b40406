package interfaces

import (
	"context"

	"github.com/aarondl/sqlboiler/v4/boil"

	"monstro-self/internal/repository/entity"
)

// MonsterRepository 怪兽仓储接口
type MonsterRepository interface {
	// GetByID 根据ID获取怪兽
	GetByID(ctx context.Context, monsterID string) (*entity.Monster, error)
	// AddExperience 为怪兽增加经验
	AddExperience(ctx context.Context, monsterID string, amount int) error
	// AddExperienceTx 在事务内为怪兽增加经验
	AddExperienceTx(ctx context.Context, exec boil.ContextExecutor, monsterID string, amount int) error
	// AddSatiety 调整怪兽饱食度（可为负，需确保不小于0）
	AddSatiety(ctx context.Context, monsterID string, delta int) error
	// AddSatietyTx 在事务内调整怪兽饱食度
	AddSatietyTx(ctx context.Context, exec boil.ContextExecutor, monsterID string, delta int) error
}
