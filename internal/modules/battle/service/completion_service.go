package service

import (
	"context"
	"encoding/json"
	"time"

	"monstro-self/internal/pkg/log"
	"monstro-self/internal/pkg/metrics"
	"monstro-self/internal/pkg/notify"
	"monstro-self/internal/pkg/rulescache"
	"monstro-self/internal/pkg/xerrors"
	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

// CompletionService 战斗结算管线
// 唯一的硬失败点是 FINISHED 落库：写不进去则整个结算中止。
// 之后的经验、审计、消耗扣减、奖励、通知全部尽力而为，单步失败只记日志。
type CompletionService struct {
	battleRepo  interfaces.MonsterBattleRepository
	monsterRepo interfaces.MonsterRepository
	userRepo    interfaces.UserRepository
	eventRepo   interfaces.BattleEventRepository
	rewards     *RewardService
	bot         *BotNotifier

	logger  log.Logger
	service string

	// 异步分支（经验、机器人通知）的超时预算
	asyncTimeout time.Duration
}

// NewCompletionService 创建结算服务
func NewCompletionService(
	battleRepo interfaces.MonsterBattleRepository,
	monsterRepo interfaces.MonsterRepository,
	userRepo interfaces.UserRepository,
	eventRepo interfaces.BattleEventRepository,
	rewards *RewardService,
	bot *BotNotifier,
	logger log.Logger,
	service string,
) *CompletionService {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &CompletionService{
		battleRepo:   battleRepo,
		monsterRepo:  monsterRepo,
		userRepo:     userRepo,
		eventRepo:    eventRepo,
		rewards:      rewards,
		bot:          bot,
		logger:       logger.With("component", "completion_service"),
		service:      service,
		asyncTimeout: 10 * time.Second,
	}
}

// Complete 执行终局结算并回填记录的奖励字段
// 调用方持有战斗锁，结算后仍需 Persist 记录以便客户端拉取最终状态
func (s *CompletionService) Complete(ctx context.Context, record *BattleRecord, winnerMonsterID string, rules rulescache.Rules) error {
	record.WinnerMonsterID = winnerMonsterID
	loserMonsterID := record.OtherMonsterID(winnerMonsterID)

	// 1. FINISHED 落库（唯一硬失败点）
	battleLog, err := json.Marshal(record.Logs)
	if err != nil {
		return xerrors.NewWithError(xerrors.CodeInternalError, "序列化战斗日志失败", err).
			WithBattle(record.BattleID)
	}

	finished, err := s.battleRepo.Finish(ctx, record.BattleID, winnerMonsterID, battleLog)
	if err != nil {
		return xerrors.Wrap(err, xerrors.CodeDatabaseError, "战斗结束状态落库失败").
			WithBattle(record.BattleID)
	}
	if !finished {
		// 并发请求已经结算过这场战斗
		return xerrors.NewBattleFinishedError(record.BattleID, winnerMonsterID)
	}

	log.LogBattleEvent(ctx, "battle_finished", record.BattleID, map[string]any{
		"winner_monster_id": winnerMonsterID,
		"turns":             record.TurnNumber,
	})

	// 2. 经验发放：异步，失败不回滚战斗结果
	go s.awardExperience(record.BattleID, winnerMonsterID, loserMonsterID, rules)

	// 3. 审计事件：尽力写入
	s.writeAuditEvents(ctx, record)

	// 4. 双方怪兽饱食度消耗
	s.applySatietyCost(ctx, record, rules)

	// 5. 解析双方用户；任一方缺失则放弃精力扣减与掉落发放
	// 经验走怪兽行，不受影响，摘要里仍然回填
	winnerReward := &RewardSummary{Experience: rules.WinnerExp}
	loserReward := &RewardSummary{Experience: rules.LoserExp}
	if s.resolveUsers(ctx, record) {
		// 6. 双方用户精力消耗
		s.applyEnergyCost(ctx, record, rules)

		// 7. 胜者奖励掷骰
		winnerUserID := s.userOf(record, winnerMonsterID)
		winnerReward = s.rewards.RollWinnerRewards(ctx, record.BattleID, winnerMonsterID, winnerUserID, rules)
	}
	if record.IsChallenger(winnerMonsterID) {
		record.ChallengerReward = winnerReward
		record.OpponentReward = loserReward
	} else {
		record.ChallengerReward = loserReward
		record.OpponentReward = winnerReward
	}

	// 8. 关联聊天时异步回调机器人
	if s.bot != nil && record.ChatID != "" {
		go func(battleID string) {
			notifyCtx, cancel := context.WithTimeout(context.Background(), s.asyncTimeout)
			defer cancel()
			s.bot.NotifyBattleResult(notifyCtx, battleID)
		}(record.BattleID)
	}

	// 9. 广播终局事件
	if err := notify.PublishBattleEvent(ctx, notify.SubjectBattleFinished, map[string]any{
		"battle_id":         record.BattleID,
		"winner_monster_id": winnerMonsterID,
		"loser_monster_id":  loserMonsterID,
		"turns":             record.TurnNumber,
	}); err != nil {
		s.logger.WarnContext(ctx, "publish battle finished event failed",
			log.String("battle_id", record.BattleID),
			log.Any("error", err))
	}

	duration := time.Duration(nowUnixMs()-record.CreatedAtMs) * time.Millisecond
	metrics.DefaultBusinessMetrics.RecordBattleFinished("knockout", duration, s.service)
	metrics.DefaultBusinessMetrics.DecActiveBattles(s.service)

	return nil
}

// awardExperience 胜负双方经验发放（后台执行）
func (s *CompletionService) awardExperience(battleID, winnerMonsterID, loserMonsterID string, rules rulescache.Rules) {
	ctx, cancel := context.WithTimeout(context.Background(), s.asyncTimeout)
	defer cancel()

	if err := s.monsterRepo.AddExperience(ctx, winnerMonsterID, rules.WinnerExp); err != nil {
		s.logger.WarnContext(ctx, "award winner experience failed",
			log.String("battle_id", battleID),
			log.String("monster_id", winnerMonsterID),
			log.Any("error", err))
	} else {
		metrics.DefaultBusinessMetrics.RecordRewardGranted("experience", s.service)
	}

	if err := s.monsterRepo.AddExperience(ctx, loserMonsterID, rules.LoserExp); err != nil {
		s.logger.WarnContext(ctx, "award loser experience failed",
			log.String("battle_id", battleID),
			log.String("monster_id", loserMonsterID),
			log.Any("error", err))
	}
}

// writeAuditEvents 把完整回合历史转成审计事件批量写入
func (s *CompletionService) writeAuditEvents(ctx context.Context, record *BattleRecord) {
	if s.eventRepo == nil {
		return
	}

	summaryPayload, err := json.Marshal(map[string]any{
		"battle_id":             record.BattleID,
		"challenger_monster_id": record.ChallengerMonsterID,
		"opponent_monster_id":   record.OpponentMonsterID,
		"winner_monster_id":     record.WinnerMonsterID,
		"turns":                 record.TurnNumber,
		"challenger_hp":         record.ChallengerHP,
		"opponent_hp":           record.OpponentHP,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "marshal battle summary failed",
			log.String("battle_id", record.BattleID),
			log.Any("error", err))
		return
	}

	events := make([]*entity.BattleEvent, 0, len(record.Logs)+1)
	events = append(events, &entity.BattleEvent{
		BattleID:  record.BattleID,
		EventType: entity.BattleEventSummary,
		Payload:   summaryPayload,
	})
	for i := range record.Logs {
		payload, err := json.Marshal(record.Logs[i])
		if err != nil {
			continue
		}
		events = append(events, &entity.BattleEvent{
			BattleID:  record.BattleID,
			EventType: entity.BattleEventTurn,
			Payload:   payload,
		})
	}

	if err := s.eventRepo.CreateBatch(ctx, events); err != nil {
		s.logger.WarnContext(ctx, "write battle audit events failed",
			log.String("battle_id", record.BattleID),
			log.Int("event_count", len(events)),
			log.Any("error", err))
	}
}

// applySatietyCost 双方怪兽扣减饱食度（仓储侧以 0 为下界）
func (s *CompletionService) applySatietyCost(ctx context.Context, record *BattleRecord, rules rulescache.Rules) {
	for _, monsterID := range []string{record.ChallengerMonsterID, record.OpponentMonsterID} {
		if err := s.monsterRepo.AddSatiety(ctx, monsterID, -rules.SatietyCost); err != nil {
			s.logger.WarnContext(ctx, "apply satiety cost failed",
				log.String("battle_id", record.BattleID),
				log.String("monster_id", monsterID),
				log.Any("error", err))
		}
	}
}

// resolveUsers 校验记录上的双方用户仍然存在
// 缺失（记录未带用户或用户行已删）按软中止处理：发放被跳过，结算继续
func (s *CompletionService) resolveUsers(ctx context.Context, record *BattleRecord) bool {
	for _, userID := range []string{record.ChallengerUserID, record.OpponentUserID} {
		if userID == "" {
			s.logger.WarnContext(ctx, "battle record missing user id, skip payout",
				log.String("battle_id", record.BattleID))
			return false
		}
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			s.logger.WarnContext(ctx, "resolve battle user failed, skip payout",
				log.String("battle_id", record.BattleID),
				log.String("user_id", userID),
				log.Any("error", err))
			return false
		}
	}
	return true
}

// applyEnergyCost 双方用户扣减精力
func (s *CompletionService) applyEnergyCost(ctx context.Context, record *BattleRecord, rules rulescache.Rules) {
	for _, userID := range []string{record.ChallengerUserID, record.OpponentUserID} {
		if err := s.userRepo.AddEnergy(ctx, userID, -rules.EnergyCost); err != nil {
			s.logger.WarnContext(ctx, "apply energy cost failed",
				log.String("battle_id", record.BattleID),
				log.String("user_id", userID),
				log.Any("error", err))
		}
	}
}

func (s *CompletionService) userOf(record *BattleRecord, monsterID string) string {
	if record.IsChallenger(monsterID) {
		return record.ChallengerUserID
	}
	return record.OpponentUserID
}

func nowUnixMs() int64 {
	return time.Now().UnixMilli()
}
