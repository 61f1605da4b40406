package impl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/google/uuid"

	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

type foodRepositoryImpl struct {
	db *sql.DB
}

// NewFoodRepository 创建食物仓储实例
func NewFoodRepository(db *sql.DB) interfaces.FoodRepository {
	return &foodRepositoryImpl{db: db}
}

// List 获取全部食物配置（掉落池）
func (r *foodRepositoryImpl) List(ctx context.Context) ([]*entity.Food, error) {
	query := `
SELECT id, name, satiety_restore, created_at, updated_at
FROM game_config.foods
ORDER BY name
`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询食物列表失败: %w", err)
	}
	defer rows.Close()

	var foods []*entity.Food
	for rows.Next() {
		var f entity.Food
		if err := rows.Scan(&f.ID, &f.Name, &f.SatietyRestore, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("读取食物列表失败: %w", err)
		}
		foods = append(foods, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取食物列表失败: %w", err)
	}
	return foods, nil
}

func (r *foodRepositoryImpl) GrantToUser(ctx context.Context, userID, foodID string, quantity int) error {
	return r.GrantToUserTx(ctx, r.db, userID, foodID, quantity)
}

// GrantToUserTx 为用户发放食物（累加数量）
func (r *foodRepositoryImpl) GrantToUserTx(ctx context.Context, exec boil.ContextExecutor, userID, foodID string, quantity int) error {
	if userID == "" || foodID == "" {
		return fmt.Errorf("user_id 和 food_id 不能为空")
	}
	if quantity <= 0 {
		return fmt.Errorf("发放数量必须为正: %d", quantity)
	}

	query := `
INSERT INTO game_runtime.user_foods (id, user_id, food_id, quantity, updated_at)
VALUES ($1, $2, $3, $4, NOW())
ON CONFLICT (user_id, food_id) DO UPDATE
SET quantity   = game_runtime.user_foods.quantity + EXCLUDED.quantity,
    updated_at = NOW()
`
	_, err := exec.ExecContext(ctx, query, uuid.New().String(), userID, foodID, quantity)
	if err != nil {
		return fmt.Errorf("发放食物失败: %w", err)
	}
	return nil
}
