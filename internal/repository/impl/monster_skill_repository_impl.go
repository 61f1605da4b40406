package impl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/google/uuid"

	"monstro-self/internal/repository/interfaces"
)

type monsterSkillRepositoryImpl struct {
	db *sql.DB
}

// NewMonsterSkillRepository 创建怪兽技能仓储实例
func NewMonsterSkillRepository(db *sql.DB) interfaces.MonsterSkillRepository {
	return &monsterSkillRepositoryImpl{db: db}
}

// Has 检查怪兽是否已习得技能
func (r *monsterSkillRepositoryImpl) Has(ctx context.Context, monsterID, skillID string) (bool, error) {
	if monsterID == "" || skillID == "" {
		return false, fmt.Errorf("monster_id 和 skill_id 不能为空")
	}

	var count int
	query := `SELECT COUNT(1) FROM game_runtime.monster_skills WHERE monster_id = $1 AND skill_id = $2`
	if err := r.db.QueryRowContext(ctx, query, monsterID, skillID).Scan(&count); err != nil {
		return false, fmt.Errorf("查询怪兽技能失败: %w", err)
	}
	return count > 0, nil
}

// Learn 为怪兽习得技能，已习得时返回 false
func (r *monsterSkillRepositoryImpl) Learn(ctx context.Context, monsterID, skillID string) (bool, error) {
	return r.LearnTx(ctx, r.db, monsterID, skillID)
}

// LearnTx 在事务内习得技能
func (r *monsterSkillRepositoryImpl) LearnTx(ctx context.Context, exec boil.ContextExecutor, monsterID, skillID string) (bool, error) {
	if monsterID == "" || skillID == "" {
		return false, fmt.Errorf("monster_id 和 skill_id 不能为空")
	}

	// 幂等：重复习得直接忽略
	query := `
INSERT INTO game_runtime.monster_skills (id, monster_id, skill_id, learned_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (monster_id, skill_id) DO NOTHING
`
	result, err := exec.ExecContext(ctx, query, uuid.New().String(), monsterID, skillID)
	if err != nil {
		return false, fmt.Errorf("习得技能失败: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("习得技能失败: %w", err)
	}
	return rows > 0, nil
}
