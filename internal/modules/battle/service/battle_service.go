package service

import (
	"context"
	"database/sql"
	"time"

	"monstro-self/internal/pkg/log"
	"monstro-self/internal/pkg/metrics"
	"monstro-self/internal/pkg/notify"
	"monstro-self/internal/pkg/rulescache"
	"monstro-self/internal/pkg/xerrors"
	"monstro-self/internal/repository/entity"
	"monstro-self/internal/repository/interfaces"
)

// BattleService 战斗业务编排
// 生命周期：Challenge 建 PENDING 行 → Accept 拍快照建 Redis 记录 → PerformAction
// 逐回合演进 → 终局走结算管线落库。回合内的互斥靠每场战斗的咨询锁。
type BattleService struct {
	store      *BattleStore
	resolver   *ActionResolver
	completion *CompletionService
	rules      *rulescache.Cache

	battleRepo  interfaces.MonsterBattleRepository
	monsterRepo interfaces.MonsterRepository
	userRepo    interfaces.UserRepository
	skillRepo   interfaces.SkillRepository

	logger  log.Logger
	service string

	// 可注入时钟（测试用）
	nowMs func() int64
}

// NewBattleService 创建战斗服务
func NewBattleService(
	store *BattleStore,
	resolver *ActionResolver,
	completion *CompletionService,
	rules *rulescache.Cache,
	battleRepo interfaces.MonsterBattleRepository,
	monsterRepo interfaces.MonsterRepository,
	userRepo interfaces.UserRepository,
	skillRepo interfaces.SkillRepository,
	logger log.Logger,
	service string,
) *BattleService {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BattleService{
		store:       store,
		resolver:    resolver,
		completion:  completion,
		rules:       rules,
		battleRepo:  battleRepo,
		monsterRepo: monsterRepo,
		userRepo:    userRepo,
		skillRepo:   skillRepo,
		logger:      logger.With("component", "battle_service"),
		service:     service,
		nowMs:       func() int64 { return time.Now().UnixMilli() },
	}
}

// Challenge 发起挑战，创建 PENDING 状态的战斗行
// chatID 可为空；有值时终局后回调机器人
func (s *BattleService) Challenge(ctx context.Context, challengerMonsterID, opponentMonsterID, chatID string) (*entity.MonsterBattle, error) {
	if challengerMonsterID == "" || opponentMonsterID == "" {
		return nil, xerrors.New(xerrors.CodeInvalidParams, "怪兽ID不能为空")
	}
	if challengerMonsterID == opponentMonsterID {
		return nil, xerrors.New(xerrors.CodeInvalidParams, "不能挑战自己的怪兽")
	}

	rules, err := s.rules.Get(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "加载战斗规则失败")
	}

	// 发起侧预检：双方怪兽存在且发起方付得起饱食度
	challenger, err := s.monsterRepo.GetByID(ctx, challengerMonsterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.monsterRepo.GetByID(ctx, opponentMonsterID); err != nil {
		return nil, err
	}
	if !challenger.CanAffordSatiety(rules.SatietyCost) {
		return nil, xerrors.NewInsufficientSatietyError(challengerMonsterID, challenger.Satiety, rules.SatietyCost)
	}

	battle := &entity.MonsterBattle{
		ChallengerMonsterID: challengerMonsterID,
		OpponentMonsterID:   opponentMonsterID,
		ChatID:              nullableString(chatID),
	}
	if err := s.battleRepo.Create(ctx, battle); err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeDatabaseError, "创建战斗失败")
	}

	log.LogBattleEvent(ctx, "battle_challenged", battle.ID, map[string]any{
		"challenger_monster_id": challengerMonsterID,
		"opponent_monster_id":   opponentMonsterID,
	})
	return battle, nil
}

// Accept 接受挑战：状态 CAS 迁移 + 拍属性/技能快照 + 建立 Redis 运行时记录
// 只有被挑战方可以接受；挑战方先手
func (s *BattleService) Accept(ctx context.Context, battleID, monsterID string) (*BattleRecord, error) {
	rules, err := s.rules.Get(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "加载战斗规则失败")
	}

	battle, err := s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if monsterID != battle.OpponentMonsterID {
		return nil, xerrors.NewBattleNotFoundError(battleID)
	}
	if battle.Status != entity.BattleStatusPending {
		return nil, xerrors.FromCode(xerrors.CodeBattleInvalidStatus).
			WithBattle(battleID).
			WithMetadata("status", battle.Status)
	}

	challenger, opponent, err := s.loadParticipants(ctx, battle)
	if err != nil {
		return nil, err
	}
	if err := s.preflightCosts(ctx, challenger, opponent, rules); err != nil {
		return nil, err
	}

	moved, err := s.battleRepo.UpdateStatus(ctx, battleID, entity.BattleStatusPending, entity.BattleStatusAccepted)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeDatabaseError, "接受战斗失败")
	}
	if !moved {
		// 并发请求抢先迁移了状态
		return nil, xerrors.FromCode(xerrors.CodeBattleInvalidStatus).WithBattle(battleID)
	}

	record, err := s.buildRecord(ctx, battle, challenger, opponent, rules)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, record, rules.RecordTTL); err != nil {
		return nil, err
	}

	metrics.DefaultBusinessMetrics.IncActiveBattles(s.service)
	log.LogBattleEvent(ctx, "battle_accepted", battleID, map[string]any{
		"challenger_monster_id": battle.ChallengerMonsterID,
		"opponent_monster_id":   battle.OpponentMonsterID,
	})
	s.publishUpdate(ctx, record, "accepted")
	return record, nil
}

// Reject 拒绝挑战
func (s *BattleService) Reject(ctx context.Context, battleID, monsterID string) error {
	battle, err := s.battleRepo.GetByID(ctx, battleID)
	if err != nil {
		return err
	}
	if monsterID != battle.OpponentMonsterID {
		return xerrors.NewBattleNotFoundError(battleID)
	}

	moved, err := s.battleRepo.UpdateStatus(ctx, battleID, entity.BattleStatusPending, entity.BattleStatusRejected)
	if err != nil {
		return xerrors.Wrap(err, xerrors.CodeDatabaseError, "拒绝战斗失败")
	}
	if !moved {
		return xerrors.FromCode(xerrors.CodeBattleInvalidStatus).WithBattle(battleID)
	}

	log.LogBattleEvent(ctx, "battle_rejected", battleID, nil)
	return nil
}

// GetBattle 获取战斗当前状态
// 非参战方一律按不存在处理，不暴露他人战斗
func (s *BattleService) GetBattle(ctx context.Context, battleID, monsterID string) (*BattleRecord, error) {
	record, err := s.store.Load(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !record.IsParticipant(monsterID) {
		return nil, xerrors.NewBattleNotFoundError(battleID)
	}
	return record, nil
}

// SetReady 标记参战方已就绪
func (s *BattleService) SetReady(ctx context.Context, battleID, monsterID string) (*BattleRecord, error) {
	return s.mutateRecord(ctx, battleID, monsterID, "ready", func(record *BattleRecord) {
		if record.IsChallenger(monsterID) {
			record.ChallengerReady = true
		} else {
			record.OpponentReady = true
		}
	})
}

// RegisterSocket 登记参战方的实时连接标识
func (s *BattleService) RegisterSocket(ctx context.Context, battleID, monsterID, socketID string) (*BattleRecord, error) {
	return s.mutateRecord(ctx, battleID, monsterID, "socket_registered", func(record *BattleRecord) {
		if record.IsChallenger(monsterID) {
			record.ChallengerSocketID = socketID
		} else {
			record.OpponentSocketID = socketID
		}
	})
}

// PerformAction 提交一个回合动作
// 锁内完成 读取 → 解算 → （终局则结算）→ 回写，锁被占用时返回可重试的 Busy
func (s *BattleService) PerformAction(ctx context.Context, input ActionInput) (*BattleRecord, *TurnOutcome, error) {
	rules, err := s.rules.Get(ctx)
	if err != nil {
		return nil, nil, xerrors.Wrap(err, xerrors.CodeInternalError, "加载战斗规则失败")
	}

	if err := s.store.Lock(ctx, input.BattleID, rules.LockTTL); err != nil {
		return nil, nil, err
	}
	defer s.store.Unlock(ctx, input.BattleID)

	record, err := s.store.Load(ctx, input.BattleID)
	if err != nil {
		return nil, nil, err
	}
	if !record.IsParticipant(input.MonsterID) {
		return nil, nil, xerrors.NewBattleNotFoundError(input.BattleID)
	}
	if record.IsFinished() {
		return nil, nil, xerrors.NewBattleFinishedError(input.BattleID, record.WinnerMonsterID)
	}

	outcome, err := s.resolver.Resolve(record, input, rules, s.nowMs())
	if err != nil {
		return nil, nil, err
	}

	if outcome.Terminal {
		if err := s.completion.Complete(ctx, record, outcome.WinnerMonsterID, rules); err != nil {
			return nil, nil, err
		}
	}

	// 回写保留既有 TTL：回合推进不给战斗续命
	if err := s.store.Persist(ctx, record); err != nil {
		return nil, nil, err
	}

	metrics.DefaultBusinessMetrics.RecordTurn(outcome.ActionKind, s.service)
	s.publishUpdate(ctx, record, "turn")
	return record, outcome, nil
}

// mutateRecord 锁内对记录做小变更并回写
func (s *BattleService) mutateRecord(ctx context.Context, battleID, monsterID, event string, mutate func(*BattleRecord)) (*BattleRecord, error) {
	rules, err := s.rules.Get(ctx)
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.CodeInternalError, "加载战斗规则失败")
	}

	if err := s.store.Lock(ctx, battleID, rules.LockTTL); err != nil {
		return nil, err
	}
	defer s.store.Unlock(ctx, battleID)

	record, err := s.store.Load(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !record.IsParticipant(monsterID) {
		return nil, xerrors.NewBattleNotFoundError(battleID)
	}
	if record.IsFinished() {
		return nil, xerrors.NewBattleFinishedError(battleID, record.WinnerMonsterID)
	}

	mutate(record)

	if err := s.store.Persist(ctx, record); err != nil {
		return nil, err
	}
	s.publishUpdate(ctx, record, event)
	return record, nil
}

func (s *BattleService) loadParticipants(ctx context.Context, battle *entity.MonsterBattle) (*entity.Monster, *entity.Monster, error) {
	challenger, err := s.monsterRepo.GetByID(ctx, battle.ChallengerMonsterID)
	if err != nil {
		return nil, nil, err
	}
	opponent, err := s.monsterRepo.GetByID(ctx, battle.OpponentMonsterID)
	if err != nil {
		return nil, nil, err
	}
	return challenger, opponent, nil
}

// preflightCosts 开战前确认双方付得起饱食度和精力
// 实际扣减发生在结算时，这里只挡住明显打不起的
func (s *BattleService) preflightCosts(ctx context.Context, challenger, opponent *entity.Monster, rules rulescache.Rules) error {
	for _, m := range []*entity.Monster{challenger, opponent} {
		if !m.CanAffordSatiety(rules.SatietyCost) {
			return xerrors.NewInsufficientSatietyError(m.ID, m.Satiety, rules.SatietyCost)
		}
		user, err := s.userRepo.GetByID(ctx, m.UserID)
		if err != nil {
			return err
		}
		if !user.CanAffordEnergy(rules.EnergyCost) {
			return xerrors.NewInsufficientEnergyError(user.ID, user.Energy, rules.EnergyCost)
		}
	}
	return nil
}

// buildRecord 拍下双方属性与技能目录快照，组装运行时记录
func (s *BattleService) buildRecord(ctx context.Context, battle *entity.MonsterBattle, challenger, opponent *entity.Monster, rules rulescache.Rules) (*BattleRecord, error) {
	challengerAttacks, challengerDefenses, err := s.snapshotSkills(ctx, challenger.ID)
	if err != nil {
		return nil, err
	}
	opponentAttacks, opponentDefenses, err := s.snapshotSkills(ctx, opponent.ID)
	if err != nil {
		return nil, err
	}

	now := s.nowMs()
	record := &BattleRecord{
		BattleID:            battle.ID,
		ChallengerMonsterID: challenger.ID,
		OpponentMonsterID:   opponent.ID,
		ChallengerUserID:    challenger.UserID,
		OpponentUserID:      opponent.UserID,

		ChallengerHP:         challenger.HP,
		OpponentHP:           opponent.HP,
		ChallengerMaxHP:      challenger.MaxHP,
		OpponentMaxHP:        opponent.MaxHP,
		ChallengerStamina:    challenger.Stamina,
		OpponentStamina:      opponent.Stamina,
		ChallengerStaminaCap: challenger.MaxStamina,
		OpponentStaminaCap:   opponent.MaxStamina,
		ChallengerStats: StatSnapshot{
			Strength: challenger.Strength,
			Defense:  challenger.Defense,
			Evasion:  challenger.Evasion,
		},
		OpponentStats: StatSnapshot{
			Strength: opponent.Strength,
			Defense:  opponent.Defense,
			Evasion:  opponent.Evasion,
		},

		ChallengerAttacks:  challengerAttacks,
		ChallengerDefenses: challengerDefenses,
		OpponentAttacks:    opponentAttacks,
		OpponentDefenses:   opponentDefenses,

		// 挑战方先手
		CurrentTurnMonsterID: challenger.ID,
		TurnNumber:           0,

		ChatID:      battle.ChatID.String,
		CreatedAtMs: now,
	}
	ResetTurnTiming(record, rules, now)
	return record, nil
}

// snapshotSkills 取怪兽可用技能并按类别分目录
func (s *BattleService) snapshotSkills(ctx context.Context, monsterID string) (attacks, defenses []SkillSnapshot, err error) {
	skills, err := s.skillRepo.ListForMonster(ctx, monsterID)
	if err != nil {
		return nil, nil, err
	}
	for _, skill := range skills {
		snapshot := NewSkillSnapshot(skill)
		switch skill.Kind {
		case entity.SkillKindAttack:
			attacks = append(attacks, snapshot)
		case entity.SkillKindDefense:
			defenses = append(defenses, snapshot)
		}
	}
	return attacks, defenses, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// publishUpdate 向网关广播战斗状态，失败只记日志
func (s *BattleService) publishUpdate(ctx context.Context, record *BattleRecord, event string) {
	payload := map[string]any{
		"event":                   event,
		"battle_id":               record.BattleID,
		"turn_number":             record.TurnNumber,
		"current_turn_monster_id": record.CurrentTurnMonsterID,
		"challenger_hp":           record.ChallengerHP,
		"opponent_hp":             record.OpponentHP,
		"winner_monster_id":       record.WinnerMonsterID,
	}
	if record.LastActionLog != nil {
		payload["last_action"] = record.LastActionLog
	}
	if err := notify.PublishBattleEvent(ctx, notify.BattleUpdateSubject(record.BattleID), payload); err != nil {
		s.logger.WarnContext(ctx, "publish battle update failed",
			log.String("battle_id", record.BattleID),
			log.Any("error", err))
	}
}
