package impl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aarondl/sqlboiler/v4/boil"

	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

type userRepositoryImpl struct {
	db *sql.DB
}

// NewUserRepository 创建用户仓储实现
func NewUserRepository(db *sql.DB) interfaces.UserRepository {
	return &userRepositoryImpl{db: db}
}

func (r *userRepositoryImpl) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id 不能为空")
	}

	query := `
SELECT id, username, energy, is_banned, ban_until, created_at, updated_at, deleted_at
FROM users
WHERE id = $1 AND deleted_at IS NULL
`
	var u entity.User
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&u.ID, &u.Username, &u.Energy, &u.IsBanned, &u.BanUntil,
		&u.CreatedAt, &u.UpdatedAt, &u.DeletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("用户不存在: %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	return &u, nil
}

func (r *userRepositoryImpl) AddEnergy(ctx context.Context, userID string, delta int) error {
	return r.AddEnergyTx(ctx, r.db, userID, delta)
}

func (r *userRepositoryImpl) AddEnergyTx(ctx context.Context, exec boil.ContextExecutor, userID string, delta int) error {
	if userID == "" {
		return fmt.Errorf("user_id 不能为空")
	}

	// 扣减时不允许低于 0
	query := `
UPDATE users
SET energy     = GREATEST(energy + $2, 0),
    updated_at = NOW()
WHERE id = $1 AND deleted_at IS NULL
`
	_, err := exec.ExecContext(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("更新用户精力失败: %w", err)
	}
	return nil
}
