package service

import (
	"context"
	"math/rand"
	"time"

	"monstro-self/internal/pkg/log"
	"monstro-self/internal/pkg/metrics"
	"monstro-self/internal/pkg/rulescache"
	"monstro-self/internal/repository/interfaces"
)

// RewardService 胜者奖励掷骰
// 三张奖励表相互独立，可同时命中；单张失败只记日志，不影响其他掷骰
type RewardService struct {
	foodRepo         interfaces.FoodRepository
	skillRepo        interfaces.SkillRepository
	monsterSkillRepo interfaces.MonsterSkillRepository
	mutagenRepo      interfaces.MutagenRepository

	rng     func() float64
	rngIntn func(n int) int
	logger  log.Logger
	service string
}

// NewRewardService 创建奖励服务
func NewRewardService(
	foodRepo interfaces.FoodRepository,
	skillRepo interfaces.SkillRepository,
	monsterSkillRepo interfaces.MonsterSkillRepository,
	mutagenRepo interfaces.MutagenRepository,
	logger log.Logger,
	service string,
) *RewardService {
	if logger == nil {
		logger = log.GetLogger()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &RewardService{
		foodRepo:         foodRepo,
		skillRepo:        skillRepo,
		monsterSkillRepo: monsterSkillRepo,
		mutagenRepo:      mutagenRepo,
		rng:              rng.Float64,
		rngIntn:          rng.Intn,
		logger:           logger.With("component", "reward_service"),
		service:          service,
	}
}

// WithRNG 注入随机源（测试用）
func (s *RewardService) WithRNG(rng func() float64, rngIntn func(n int) int) *RewardService {
	s.rng = rng
	s.rngIntn = rngIntn
	return s
}

// RollWinnerRewards 为胜者掷全部奖励表并落库
// 返回的摘要只包含实际发放成功的奖励
func (s *RewardService) RollWinnerRewards(ctx context.Context, battleID, winnerMonsterID, winnerUserID string, rules rulescache.Rules) *RewardSummary {
	summary := &RewardSummary{Experience: rules.WinnerExp}

	s.rollFood(ctx, battleID, winnerUserID, rules, summary)
	s.rollSkill(ctx, battleID, winnerMonsterID, rules, summary)
	s.rollMutagen(ctx, battleID, winnerMonsterID, rules, summary)

	return summary
}

// rollFood 食物掉落：接近必掉，数量 1..N 随机
func (s *RewardService) rollFood(ctx context.Context, battleID, userID string, rules rulescache.Rules, summary *RewardSummary) {
	if s.rng() >= rules.FoodDropRate {
		return
	}

	foods, err := s.foodRepo.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "food reward roll failed",
			log.String("battle_id", battleID),
			log.Any("error", err))
		return
	}
	if len(foods) == 0 {
		return
	}

	food := foods[s.rngIntn(len(foods))]
	qty := 1
	if rules.FoodQtyMax > 1 {
		qty = 1 + s.rngIntn(rules.FoodQtyMax)
	}

	if err := s.foodRepo.GrantToUser(ctx, userID, food.ID, qty); err != nil {
		s.logger.WarnContext(ctx, "grant food reward failed",
			log.String("battle_id", battleID),
			log.String("food_id", food.ID),
			log.Any("error", err))
		return
	}

	summary.FoodID = food.ID
	summary.FoodQuantity = qty
	metrics.DefaultBusinessMetrics.RecordRewardGranted("food", s.service)
}

// rollSkill 技能掉落：低概率，从非基础技能池中抽取，已习得则不重复发放
func (s *RewardService) rollSkill(ctx context.Context, battleID, monsterID string, rules rulescache.Rules, summary *RewardSummary) {
	if s.rng() >= rules.SkillDropRate {
		return
	}

	pool, err := s.skillRepo.ListRewardPool(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "skill reward roll failed",
			log.String("battle_id", battleID),
			log.Any("error", err))
		return
	}
	if len(pool) == 0 {
		return
	}

	skill := pool[s.rngIntn(len(pool))]
	learned, err := s.monsterSkillRepo.Learn(ctx, monsterID, skill.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "grant skill reward failed",
			log.String("battle_id", battleID),
			log.String("skill_id", skill.ID),
			log.Any("error", err))
		return
	}
	if !learned {
		// 已掌握该技能，本次掷骰落空
		return
	}

	summary.SkillID = skill.ID
	metrics.DefaultBusinessMetrics.RecordRewardGranted("skill", s.service)
}

// rollMutagen 诱变剂掉落：概率门控
func (s *RewardService) rollMutagen(ctx context.Context, battleID, monsterID string, rules rulescache.Rules, summary *RewardSummary) {
	if s.rng() >= rules.MutagenDropRate {
		return
	}

	mutagens, err := s.mutagenRepo.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "mutagen reward roll failed",
			log.String("battle_id", battleID),
			log.Any("error", err))
		return
	}
	if len(mutagens) == 0 {
		return
	}

	mutagen := mutagens[s.rngIntn(len(mutagens))]
	if err := s.mutagenRepo.GrantToMonster(ctx, monsterID, mutagen.ID); err != nil {
		s.logger.WarnContext(ctx, "grant mutagen reward failed",
			log.String("battle_id", battleID),
			log.String("mutagen_id", mutagen.ID),
			log.Any("error", err))
		return
	}

	summary.MutagenID = mutagen.ID
	metrics.DefaultBusinessMetrics.RecordRewardGranted("mutagen", s.service)
}
