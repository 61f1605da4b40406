package impl

import (
	"context"
	"database/sql"
	"fmt"

	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

type skillRepositoryImpl struct {
	db *sql.DB
}

// NewSkillRepository 创建技能仓储实例
func NewSkillRepository(db *sql.DB) interfaces.SkillRepository {
	return &skillRepositoryImpl{db: db}
}

const skillColumns = `
id, name, kind, strength_modifier, defense_modifier, evasion_modifier,
energy_cost, cooldown, is_base, created_at, updated_at
`

func scanSkill(row interface{ Scan(...any) error }) (*entity.Skill, error) {
	var s entity.Skill
	err := row.Scan(
		&s.ID, &s.Name, &s.Kind,
		&s.StrengthModifier, &s.DefenseModifier, &s.EvasionModifier,
		&s.EnergyCost, &s.Cooldown, &s.IsBase,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByID 根据ID获取技能
func (r *skillRepositoryImpl) GetByID(ctx context.Context, skillID string) (*entity.Skill, error) {
	if skillID == "" {
		return nil, fmt.Errorf("skill_id 不能为空")
	}

	query := `SELECT ` + skillColumns + ` FROM game_config.skills WHERE id = $1`
	skill, err := scanSkill(r.db.QueryRowContext(ctx, query, skillID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("技能不存在: %s", skillID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询技能失败: %w", err)
	}
	return skill, nil
}

// ListForMonster 获取怪兽可用技能（基础技能 + 已习得技能）
func (r *skillRepositoryImpl) ListForMonster(ctx context.Context, monsterID string) ([]*entity.Skill, error) {
	if monsterID == "" {
		return nil, fmt.Errorf("monster_id 不能为空")
	}

	query := `
SELECT ` + skillColumns + `
FROM game_config.skills s
WHERE s.is_base = TRUE
   OR EXISTS (
		SELECT 1 FROM game_runtime.monster_skills ms
		WHERE ms.skill_id = s.id AND ms.monster_id = $1
   )
ORDER BY s.kind, s.name
`
	rows, err := r.db.QueryContext(ctx, query, monsterID)
	if err != nil {
		return nil, fmt.Errorf("查询怪兽技能失败: %w", err)
	}
	defer rows.Close()

	var skills []*entity.Skill
	for rows.Next() {
		skill, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("读取怪兽技能失败: %w", err)
		}
		skills = append(skills, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取怪兽技能失败: %w", err)
	}
	return skills, nil
}

// ListRewardPool 获取可作为战利品掉落的技能池（非基础技能）
func (r *skillRepositoryImpl) ListRewardPool(ctx context.Context) ([]*entity.Skill, error) {
	query := `
SELECT ` + skillColumns + `
FROM game_config.skills s
WHERE s.is_base = FALSE
ORDER BY s.name
`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询技能掉落池失败: %w", err)
	}
	defer rows.Close()

	var skills []*entity.Skill
	for rows.Next() {
		skill, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("读取技能掉落池失败: %w", err)
		}
		skills = append(skills, skill)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取技能掉落池失败: %w", err)
	}
	return skills, nil
}
