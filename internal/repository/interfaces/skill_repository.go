package interfaces

import (
	"context"

	"github.com/aarondl/sqlboiler/v4/boil"

	"monstro-self/internal/repository/entity"
)

// SkillRepository 技能配置仓储接口
type SkillRepository interface {
	// GetByID 根据ID获取技能
	GetByID(ctx context.Context, skillID string) (*entity.Skill, error)
	// ListForMonster 获取怪兽可用技能（基础技能 + 已习得技能）
	ListForMonster(ctx context.Context, monsterID string) ([]*entity.Skill, error)
	// ListRewardPool 获取可作为战利品掉落的技能池（非基础技能）
	ListRewardPool(ctx context.Context) ([]*entity.Skill, error)
}

// MonsterSkillRepository 怪兽技能习得仓储接口
type MonsterSkillRepository interface {
	// Has 检查怪兽是否已习得技能
	Has(ctx context.Context, monsterID, skillID string) (bool, error)
	// Learn 为怪兽习得技能，已习得时返回 false
	Learn(ctx context.Context, monsterID, skillID string) (bool, error)
	// LearnTx 在事务内习得技能
	LearnTx(ctx context.Context, exec boil.ContextExecutor, monsterID, skillID string) (bool, error)
}
