package interfaces

import (
	"context"

	"monstro-self/internal/repository/entity"
)

// BattleEventRepository 战斗审计事件仓储接口
// 结算管线尽力写入：失败只记日志，不阻断结算
type BattleEventRepository interface {
	// Create 写入单条审计事件
	Create(ctx context.Context, event *entity.BattleEvent) error
	// CreateBatch 批量写入审计事件
	CreateBatch(ctx context.Context, events []*entity.BattleEvent) error
}
