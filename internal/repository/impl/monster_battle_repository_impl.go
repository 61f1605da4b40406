package impl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

type monsterBattleRepositoryImpl struct {
	db *sql.DB
}

// NewMonsterBattleRepository 创建战斗仓储实例
func NewMonsterBattleRepository(db *sql.DB) interfaces.MonsterBattleRepository {
	return &monsterBattleRepositoryImpl{db: db}
}

// Create 创建 PENDING 状态的战斗行
func (r *monsterBattleRepositoryImpl) Create(ctx context.Context, battle *entity.MonsterBattle) error {
	if battle == nil {
		return fmt.Errorf("battle 不能为空")
	}
	if battle.ID == "" {
		battle.ID = uuid.New().String()
	}
	if battle.Status == "" {
		battle.Status = entity.BattleStatusPending
	}

	query := `
INSERT INTO game_runtime.monster_battles (
	id, challenger_monster_id, opponent_monster_id, status, chat_id
) VALUES ($1, $2, $3, $4, $5)
`
	_, err := r.db.ExecContext(ctx, query,
		battle.ID,
		battle.ChallengerMonsterID,
		battle.OpponentMonsterID,
		battle.Status,
		battle.ChatID,
	)
	if err != nil {
		return fmt.Errorf("创建战斗记录失败: %w", err)
	}
	return nil
}

// GetByID 根据ID获取战斗
func (r *monsterBattleRepositoryImpl) GetByID(ctx context.Context, battleID string) (*entity.MonsterBattle, error) {
	if battleID == "" {
		return nil, fmt.Errorf("battle_id 不能为空")
	}

	query := `
SELECT id, challenger_monster_id, opponent_monster_id, status,
       winner_monster_id, battle_log, chat_id,
       created_at, updated_at, finished_at
FROM game_runtime.monster_battles
WHERE id = $1
`
	var b entity.MonsterBattle
	err := r.db.QueryRowContext(ctx, query, battleID).Scan(
		&b.ID, &b.ChallengerMonsterID, &b.OpponentMonsterID, &b.Status,
		&b.WinnerMonsterID, &b.BattleLog, &b.ChatID,
		&b.CreatedAt, &b.UpdatedAt, &b.FinishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("战斗不存在: %s", battleID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询战斗失败: %w", err)
	}

	return &b, nil
}

// UpdateStatus 条件状态迁移
func (r *monsterBattleRepositoryImpl) UpdateStatus(ctx context.Context, battleID, fromStatus, toStatus string) (bool, error) {
	if battleID == "" {
		return false, fmt.Errorf("battle_id 不能为空")
	}

	query := `
UPDATE game_runtime.monster_battles
SET status     = $3,
    updated_at = NOW()
WHERE id = $1 AND status = $2
`
	result, err := r.db.ExecContext(ctx, query, battleID, fromStatus, toStatus)
	if err != nil {
		return false, fmt.Errorf("更新战斗状态失败: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新战斗状态失败: %w", err)
	}
	return rows > 0, nil
}

// Finish 标记战斗结束，幂等：已 FINISHED 的行不再变更
func (r *monsterBattleRepositoryImpl) Finish(ctx context.Context, battleID, winnerMonsterID string, battleLog []byte) (bool, error) {
	if battleID == "" {
		return false, fmt.Errorf("battle_id 不能为空")
	}
	if winnerMonsterID == "" {
		return false, fmt.Errorf("winner_monster_id 不能为空")
	}

	query := `
UPDATE game_runtime.monster_battles
SET status            = $2,
    winner_monster_id = $3,
    battle_log        = $4,
    finished_at       = NOW(),
    updated_at        = NOW()
WHERE id = $1 AND status != $2
`
	result, err := r.db.ExecContext(ctx, query,
		battleID,
		entity.BattleStatusFinished,
		winnerMonsterID,
		nullJSON(battleLog),
	)
	if err != nil {
		return false, fmt.Errorf("结算战斗失败: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("结算战斗失败: %w", err)
	}
	return rows > 0, nil
}

// ExpireStale 清理超龄的 PENDING/ACCEPTED 行
// Redis 里的战斗记录靠 TTL 自行过期，这里只兜底持久化侧的僵尸行
func (r *monsterBattleRepositoryImpl) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
UPDATE game_runtime.monster_battles
SET status     = $1,
    updated_at = NOW()
WHERE status IN ($2, $3)
  AND created_at < NOW() - $4::interval
`
	interval := fmt.Sprintf("%d seconds", int(olderThan.Seconds()))
	result, err := r.db.ExecContext(ctx, query,
		entity.BattleStatusRejected,
		entity.BattleStatusPending,
		entity.BattleStatusAccepted,
		interval,
	)
	if err != nil {
		return 0, fmt.Errorf("清理过期战斗失败: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("清理过期战斗失败: %w", err)
	}
	return rows, nil
}
