package tasks

import (
	"context"
	"database/sql"
	"time"

	"github.com/robfig/cron/v3"

	"monstro-self/internal/pkg/log"
	"monstro-self/internal/repository/impl"
	"monstro-self/internal/repository/interfaces"
)

// BattleCleanupTask 过期挑战清理任务
// 运行时记录靠 Redis TTL 自然过期，这里只收拾没人响应的持久化行：
// 超龄的 PENDING/ACCEPTED 统一置为 REJECTED
type BattleCleanupTask struct {
	battleRepo interfaces.MonsterBattleRepository
	maxAge     time.Duration
	logger     log.Logger
	cron       *cron.Cron
}

// NewBattleCleanupTask 创建清理任务实例
func NewBattleCleanupTask(db *sql.DB, maxAge time.Duration, logger log.Logger) *BattleCleanupTask {
	return &BattleCleanupTask{
		battleRepo: impl.NewMonsterBattleRepository(db),
		maxAge:     maxAge,
		logger:     logger,
	}
}

// Start 启动定时任务
func (t *BattleCleanupTask) Start() {
	t.cron = cron.New(cron.WithSeconds())

	// 每 10 分钟扫一次
	// Cron 表达式: 秒 分 时 日 月 周
	_, err := t.cron.AddFunc("0 */10 * * * *", func() {
		t.expireStaleBattles()
	})
	if err != nil {
		t.logger.Error("【定时任务】添加战斗清理任务失败", err)
		return
	}

	t.cron.Start()
	t.logger.Info("【定时任务】已启动 - 每10分钟清理一次过期挑战")
}

// expireStaleBattles 清理超龄的未完成战斗行
func (t *BattleCleanupTask) expireStaleBattles() {
	ctx := context.Background()

	count, err := t.battleRepo.ExpireStale(ctx, t.maxAge)
	if err != nil {
		t.logger.Error("【定时任务】清理过期挑战失败", err)
		return
	}
	if count > 0 {
		t.logger.Info("【定时任务】过期挑战清理完成", "expired_count", count)
	}
}

// Stop 停止定时任务（优雅关闭）
func (t *BattleCleanupTask) Stop() {
	if t.cron != nil {
		ctx := t.cron.Stop()
		<-ctx.Done()
		t.logger.Info("【定时任务】战斗清理任务已停止")
	}
}
