package interfaces

import (
	"context"
	"time"

	"monstro-self/internal/repository/entity"
)

// MonsterBattleRepository 战斗持久化仓储接口
type MonsterBattleRepository interface {
	// Create 创建 PENDING 状态的战斗行
	Create(ctx context.Context, battle *entity.MonsterBattle) error
	// GetByID 根据ID获取战斗
	GetByID(ctx context.Context, battleID string) (*entity.MonsterBattle, error)
	// UpdateStatus 条件状态迁移，返回是否实际更新（false 表示行不在 fromStatus）
	UpdateStatus(ctx context.Context, battleID, fromStatus, toStatus string) (bool, error)
	// Finish 标记战斗结束并落库胜者与完整日志
	// 仅当行尚未 FINISHED 时生效，返回 false 表示已被并发请求结算过
	Finish(ctx context.Context, battleID, winnerMonsterID string, battleLog []byte) (bool, error)
	// ExpireStale 清理超龄的 PENDING/ACCEPTED 行，返回影响行数
	ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error)
}
