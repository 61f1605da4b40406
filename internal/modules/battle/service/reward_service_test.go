package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"monstro-self/internal/repository/entity"
)

type rewardFixture struct {
	rewards          *RewardService
	foodRepo         *fakeFoodRepo
	skillRepo        *fakeSkillRepo
	monsterSkillRepo *fakeMonsterSkillRepo
	mutagenRepo      *fakeMutagenRepo
}

func newRewardFixture() *rewardFixture {
	foodRepo := newFakeFoodRepo(&entity.Food{ID: "food-1", Name: "烤肉", SatietyRestore: 20})
	skillRepo := &fakeSkillRepo{
		rewardPool: []*entity.Skill{{ID: "skill-rare", Name: "雷霆一击", Kind: entity.SkillKindAttack}},
	}
	monsterSkillRepo := newFakeMonsterSkillRepo()
	mutagenRepo := newFakeMutagenRepo(&entity.Mutagen{ID: "mutagen-1", Name: "烈焰血清"})

	return &rewardFixture{
		rewards:          NewRewardService(foodRepo, skillRepo, monsterSkillRepo, mutagenRepo, nil, "battle"),
		foodRepo:         foodRepo,
		skillRepo:        skillRepo,
		monsterSkillRepo: monsterSkillRepo,
		mutagenRepo:      mutagenRepo,
	}
}

func TestRollWinnerRewardsAllHit(t *testing.T) {
	f := newRewardFixture()
	f.rewards.WithRNG(fixedRNG(0.0), func(n int) int { return 0 })

	summary := f.rewards.RollWinnerRewards(context.Background(), "battle-1", "monster-a", "user-a", testRules())

	require.Equal(t, 50, summary.Experience)
	require.Equal(t, "food-1", summary.FoodID)
	require.Equal(t, 1, summary.FoodQuantity)
	require.Equal(t, "skill-rare", summary.SkillID)
	require.Equal(t, "mutagen-1", summary.MutagenID)

	require.Equal(t, 1, f.foodRepo.grants["user-a:food-1"])
	require.Equal(t, "mutagen-1", f.mutagenRepo.grants["monster-a"])
	learned, err := f.monsterSkillRepo.Has(context.Background(), "monster-a", "skill-rare")
	require.NoError(t, err)
	require.True(t, learned)
}

func TestRollWinnerRewardsAllMiss(t *testing.T) {
	f := newRewardFixture()
	f.rewards.WithRNG(fixedRNG(0.99), func(n int) int { return 0 })

	summary := f.rewards.RollWinnerRewards(context.Background(), "battle-1", "monster-a", "user-a", testRules())

	require.Equal(t, 50, summary.Experience)
	require.Empty(t, summary.FoodID)
	require.Empty(t, summary.SkillID)
	require.Empty(t, summary.MutagenID)
	require.Empty(t, f.foodRepo.grants)
}

func TestRollWinnerRewardsRollsAreIsolated(t *testing.T) {
	f := newRewardFixture()
	f.rewards.WithRNG(fixedRNG(0.0), func(n int) int { return 0 })
	f.foodRepo.listErr = errors.New("foods table unavailable")

	summary := f.rewards.RollWinnerRewards(context.Background(), "battle-1", "monster-a", "user-a", testRules())

	// 食物掷骰失败，技能和诱变剂照常发放
	require.Empty(t, summary.FoodID)
	require.Equal(t, "skill-rare", summary.SkillID)
	require.Equal(t, "mutagen-1", summary.MutagenID)
}

func TestRollWinnerRewardsSkipsLearnedSkill(t *testing.T) {
	f := newRewardFixture()
	f.rewards.WithRNG(fixedRNG(0.0), func(n int) int { return 0 })

	_, err := f.monsterSkillRepo.Learn(context.Background(), "monster-a", "skill-rare")
	require.NoError(t, err)

	summary := f.rewards.RollWinnerRewards(context.Background(), "battle-1", "monster-a", "user-a", testRules())

	// 已掌握的技能不重复发放，摘要里也不出现
	require.Empty(t, summary.SkillID)
}

func TestRollWinnerRewardsFoodQuantityInRange(t *testing.T) {
	f := newRewardFixture()
	f.rewards.WithRNG(fixedRNG(0.0), func(n int) int { return n - 1 })

	summary := f.rewards.RollWinnerRewards(context.Background(), "battle-1", "monster-a", "user-a", testRules())

	require.Equal(t, 3, summary.FoodQuantity) // 1 + (FoodQtyMax − 1)
}
