package impl

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

type mutagenRepositoryImpl struct {
	db *sql.DB
}

// NewMutagenRepository 创建诱变剂仓储实例
func NewMutagenRepository(db *sql.DB) interfaces.MutagenRepository {
	return &mutagenRepositoryImpl{db: db}
}

// List 获取全部诱变剂配置（掉落池）
func (r *mutagenRepositoryImpl) List(ctx context.Context) ([]*entity.Mutagen, error) {
	query := `
SELECT id, name, drop_rate, created_at, updated_at
FROM game_config.mutagens
ORDER BY name
`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("查询诱变剂列表失败: %w", err)
	}
	defer rows.Close()

	var mutagens []*entity.Mutagen
	for rows.Next() {
		var m entity.Mutagen
		if err := rows.Scan(&m.ID, &m.Name, &m.DropRate, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("读取诱变剂列表失败: %w", err)
		}
		mutagens = append(mutagens, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("读取诱变剂列表失败: %w", err)
	}
	return mutagens, nil
}

// GrantToMonster 为怪兽发放诱变剂
func (r *mutagenRepositoryImpl) GrantToMonster(ctx context.Context, monsterID, mutagenID string) error {
	if monsterID == "" || mutagenID == "" {
		return fmt.Errorf("monster_id 和 mutagen_id 不能为空")
	}

	query := `
INSERT INTO game_runtime.monster_mutagens (id, monster_id, mutagen_id, granted_at)
VALUES ($1, $2, $3, NOW())
`
	_, err := r.db.ExecContext(ctx, query, uuid.New().String(), monsterID, mutagenID)
	if err != nil {
		return fmt.Errorf("发放诱变剂失败: %w", err)
	}
	return nil
}
