package impl

import (
	"context"
	"database/sql"

	"github.com/friendsofgo/errors"
	"github.com/google/uuid"

	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

type battleEventRepositoryImpl struct {
	db *sql.DB
}

// NewBattleEventRepository 创建战斗审计事件仓储实例
func NewBattleEventRepository(db *sql.DB) interfaces.BattleEventRepository {
	return &battleEventRepositoryImpl{db: db}
}

// Create 写入单条审计事件
func (r *battleEventRepositoryImpl) Create(ctx context.Context, event *entity.BattleEvent) error {
	if event == nil {
		return errors.New("event 不能为空")
	}
	if event.BattleID == "" {
		return errors.New("battle_id 不能为空")
	}
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	query := `
INSERT INTO game_runtime.battle_events (id, battle_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4, NOW())
`
	_, err := r.db.ExecContext(ctx, query, event.ID, event.BattleID, event.EventType, nullJSON(event.Payload))
	if err != nil {
		return errors.Wrap(err, "写入战斗事件失败")
	}
	return nil
}

// CreateBatch 在单个事务内批量写入审计事件
func (r *battleEventRepositoryImpl) CreateBatch(ctx context.Context, events []*entity.BattleEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "开启事务失败")
	}
	defer func() { _ = tx.Rollback() }()

	query := `
INSERT INTO game_runtime.battle_events (id, battle_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4, NOW())
`
	for _, event := range events {
		if event.BattleID == "" {
			return errors.New("battle_id 不能为空")
		}
		if event.ID == "" {
			event.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, query, event.ID, event.BattleID, event.EventType, nullJSON(event.Payload)); err != nil {
			return errors.Wrap(err, "写入战斗事件失败")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "提交战斗事件失败")
	}
	return nil
}
