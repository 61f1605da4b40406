package impl

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"monstro-self/internal/repository/entity"
)

// 需要可达的 Postgres 实例，RUN_REPOSITORY_TESTS=1 时启用（见 main_test.go）

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOrDefault("TEST_DB_HOST", "localhost")
	port := envOrDefault("TEST_DB_PORT", "5432")
	user := envOrDefault("TEST_DB_USER", "postgres")
	password := envOrDefault("TEST_DB_PASSWORD", "postgres")
	dbname := envOrDefault("TEST_DB_NAME", "monstro_db")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	t.Cleanup(func() { _ = db.Close() })
	return db
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seedBattle(t *testing.T, db *sql.DB) *entity.MonsterBattle {
	t.Helper()

	repo := NewMonsterBattleRepository(db)
	battle := &entity.MonsterBattle{
		ChallengerMonsterID: envOrDefault("TEST_CHALLENGER_MONSTER_ID", ""),
		OpponentMonsterID:   envOrDefault("TEST_OPPONENT_MONSTER_ID", ""),
	}
	if battle.ChallengerMonsterID == "" || battle.OpponentMonsterID == "" {
		t.Skip("需要 TEST_CHALLENGER_MONSTER_ID / TEST_OPPONENT_MONSTER_ID 指向已存在的怪兽行")
	}

	require.NoError(t, repo.Create(context.Background(), battle))
	t.Cleanup(func() {
		_, _ = db.Exec("DELETE FROM game_runtime.battle_events WHERE battle_id = $1", battle.ID)
		_, _ = db.Exec("DELETE FROM game_runtime.monster_battles WHERE id = $1", battle.ID)
	})
	return battle
}

func TestMonsterBattleLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewMonsterBattleRepository(db)
	ctx := context.Background()

	battle := seedBattle(t, db)

	got, err := repo.GetByID(ctx, battle.ID)
	require.NoError(t, err)
	require.Equal(t, entity.BattleStatusPending, got.Status)

	// CAS 状态迁移：PENDING → ACCEPTED 成功一次，重复迁移失败
	moved, err := repo.UpdateStatus(ctx, battle.ID, entity.BattleStatusPending, entity.BattleStatusAccepted)
	require.NoError(t, err)
	require.True(t, moved)

	moved, err = repo.UpdateStatus(ctx, battle.ID, entity.BattleStatusPending, entity.BattleStatusAccepted)
	require.NoError(t, err)
	require.False(t, moved)

	// 结算幂等：第二次 Finish 不再变更
	finished, err := repo.Finish(ctx, battle.ID, battle.ChallengerMonsterID, []byte(`[{"turn":1}]`))
	require.NoError(t, err)
	require.True(t, finished)

	finished, err = repo.Finish(ctx, battle.ID, battle.ChallengerMonsterID, nil)
	require.NoError(t, err)
	require.False(t, finished)

	got, err = repo.GetByID(ctx, battle.ID)
	require.NoError(t, err)
	require.Equal(t, entity.BattleStatusFinished, got.Status)
	require.Equal(t, battle.ChallengerMonsterID, got.WinnerMonsterID.String)
}

func TestExpireStaleSkipsFreshRows(t *testing.T) {
	db := openTestDB(t)
	repo := NewMonsterBattleRepository(db)
	ctx := context.Background()

	battle := seedBattle(t, db)

	// 刚创建的行不在清理范围内
	_, err := repo.ExpireStale(ctx, 24*time.Hour)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, battle.ID)
	require.NoError(t, err)
	require.Equal(t, entity.BattleStatusPending, got.Status)
}
