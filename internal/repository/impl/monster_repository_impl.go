package impl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aarondl/sqlboiler/v4/boil"

	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

type monsterRepositoryImpl struct {
	db *sql.DB
}

// NewMonsterRepository 创建怪兽仓储实例
func NewMonsterRepository(db *sql.DB) interfaces.MonsterRepository {
	return &monsterRepositoryImpl{db: db}
}

// GetByID 根据ID获取怪兽
func (r *monsterRepositoryImpl) GetByID(ctx context.Context, monsterID string) (*entity.Monster, error) {
	if monsterID == "" {
		return nil, fmt.Errorf("monster_id 不能为空")
	}

	query := `
SELECT id, user_id, name, level, experience,
       hp, max_hp, stamina, max_stamina, strength, defense, evasion,
       satiety, created_at, updated_at, deleted_at
FROM game_runtime.monsters
WHERE id = $1 AND deleted_at IS NULL
`
	var m entity.Monster
	err := r.db.QueryRowContext(ctx, query, monsterID).Scan(
		&m.ID, &m.UserID, &m.Name, &m.Level, &m.Experience,
		&m.HP, &m.MaxHP, &m.Stamina, &m.MaxStamina, &m.Strength, &m.Defense, &m.Evasion,
		&m.Satiety, &m.CreatedAt, &m.UpdatedAt, &m.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("怪兽不存在: %s", monsterID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询怪兽失败: %w", err)
	}

	return &m, nil
}

func (r *monsterRepositoryImpl) AddExperience(ctx context.Context, monsterID string, amount int) error {
	return r.AddExperienceTx(ctx, r.db, monsterID, amount)
}

func (r *monsterRepositoryImpl) AddExperienceTx(ctx context.Context, exec boil.ContextExecutor, monsterID string, amount int) error {
	if monsterID == "" {
		return fmt.Errorf("monster_id 不能为空")
	}

	query := `
UPDATE game_runtime.monsters
SET experience = experience + $2,
    updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`
	result, err := exec.ExecContext(ctx, query, monsterID, amount)
	if err != nil {
		return fmt.Errorf("更新怪兽经验失败: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新怪兽经验失败: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("怪兽不存在: %s", monsterID)
	}
	return nil
}

func (r *monsterRepositoryImpl) AddSatiety(ctx context.Context, monsterID string, delta int) error {
	return r.AddSatietyTx(ctx, r.db, monsterID, delta)
}

func (r *monsterRepositoryImpl) AddSatietyTx(ctx context.Context, exec boil.ContextExecutor, monsterID string, delta int) error {
	if monsterID == "" {
		return fmt.Errorf("monster_id 不能为空")
	}

	// 扣减时不允许低于 0
	query := `
UPDATE game_runtime.monsters
SET satiety    = GREATEST(satiety + $2, 0),
    updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`
	_, err := exec.ExecContext(ctx, query, monsterID, delta)
	if err != nil {
		return fmt.Errorf("更新怪兽饱食度失败: %w", err)
	}
	return nil
}
