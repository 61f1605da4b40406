package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"monstro-self/internal/pkg/rulescache"
	"monstro-self/internal/pkg/xerrors"
	"monstro-self/internal/repository/entity"
)

type serviceFixture struct {
	svc         *BattleService
	kv          *memKV
	store       *BattleStore
	battleRepo  *fakeBattleRepo
	monsterRepo *fakeMonsterRepo
	userRepo    *fakeUserRepo
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	kv := newMemKV()
	store := NewBattleStore(kv, nil)
	resolver := NewActionResolverWithRNG(fixedRNG(0.99))

	monsterRepo := newFakeMonsterRepo(
		&entity.Monster{
			ID: "monster-a", UserID: "user-a", Name: "岩甲龟",
			HP: 100, MaxHP: 100, Stamina: 18, MaxStamina: 50,
			Strength: 12, Defense: 8, Evasion: 30, Satiety: 80,
		},
		&entity.Monster{
			ID: "monster-b", UserID: "user-b", Name: "影刃狼",
			HP: 100, MaxHP: 100, Stamina: 20, MaxStamina: 50,
			Strength: 10, Defense: 10, Evasion: 20, Satiety: 60,
		},
	)
	userRepo := newFakeUserRepo(
		&entity.User{ID: "user-a", Username: "alice", Energy: 40},
		&entity.User{ID: "user-b", Username: "bob", Energy: 30},
	)
	battleRepo := newFakeBattleRepo()
	skillRepo := &fakeSkillRepo{
		byMonster: map[string][]*entity.Skill{
			"monster-a": {
				{ID: "atk-1", Name: "撕咬", Kind: entity.SkillKindAttack, StrengthModifier: dec(12, 1), EnergyCost: 6, IsBase: true},
				{ID: "def-1", Name: "硬化甲壳", Kind: entity.SkillKindDefense, DefenseModifier: dec(15, 1), EvasionModifier: dec(5, 1), EnergyCost: 4},
			},
			"monster-b": {
				{ID: "atk-2", Name: "尾击", Kind: entity.SkillKindAttack, StrengthModifier: dec(10, 1), EnergyCost: 5, IsBase: true},
			},
		},
	}

	rewards := NewRewardService(
		newFakeFoodRepo(), skillRepo, newFakeMonsterSkillRepo(), newFakeMutagenRepo(),
		nil, "battle",
	).WithRNG(fixedRNG(0.99), func(n int) int { return 0 })
	completion := NewCompletionService(battleRepo, monsterRepo, userRepo, &fakeEventRepo{}, rewards, nil, nil, "battle")

	rules := rulescache.New(time.Hour, func(ctx context.Context) (rulescache.Rules, error) {
		return testRules(), nil
	}, nil, nil)

	svc := NewBattleService(store, resolver, completion, rules, battleRepo, monsterRepo, userRepo, skillRepo, nil, "battle")
	svc.nowMs = func() int64 { return 2000 }

	return &serviceFixture{
		svc:         svc,
		kv:          kv,
		store:       store,
		battleRepo:  battleRepo,
		monsterRepo: monsterRepo,
		userRepo:    userRepo,
	}
}

func (f *serviceFixture) seedRecord(t *testing.T, record *BattleRecord) {
	t.Helper()
	require.NoError(t, f.store.Create(context.Background(), record, time.Minute))
}

func TestChallengeCreatesPendingBattle(t *testing.T) {
	f := newServiceFixture(t)

	battle, err := f.svc.Challenge(context.Background(), "monster-a", "monster-b", "chat-42")
	require.NoError(t, err)
	require.NotEmpty(t, battle.ID)
	require.Equal(t, entity.BattleStatusPending, battle.Status)
	require.True(t, battle.ChatID.Valid)
	require.Equal(t, "chat-42", battle.ChatID.String)
}

func TestChallengeRejectsSelfBattle(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Challenge(context.Background(), "monster-a", "monster-a", "")
	requireBattleCode(t, err, xerrors.CodeInvalidParams)
}

func TestChallengeRejectsHungryChallenger(t *testing.T) {
	f := newServiceFixture(t)
	f.monsterRepo.monsters["monster-a"].Satiety = 5

	_, err := f.svc.Challenge(context.Background(), "monster-a", "monster-b", "")
	requireBattleCode(t, err, xerrors.CodeInsufficientSatiety)
}

func TestAcceptBuildsRuntimeRecord(t *testing.T) {
	f := newServiceFixture(t)
	battle, err := f.svc.Challenge(context.Background(), "monster-a", "monster-b", "chat-42")
	require.NoError(t, err)

	record, err := f.svc.Accept(context.Background(), battle.ID, "monster-b")
	require.NoError(t, err)

	require.Equal(t, entity.BattleStatusAccepted, f.battleRepo.get(battle.ID).Status)

	// 挑战方先手，回合计数从 0 起，属性与技能目录已拍快照
	require.Equal(t, "monster-a", record.CurrentTurnMonsterID)
	require.Equal(t, 0, record.TurnNumber)
	require.Equal(t, 100, record.ChallengerHP)
	require.Equal(t, 12, record.ChallengerStats.Strength)
	require.Len(t, record.ChallengerAttacks, 1)
	require.Len(t, record.ChallengerDefenses, 1)
	require.Len(t, record.OpponentAttacks, 1)
	require.Empty(t, record.OpponentDefenses)
	require.Equal(t, "chat-42", record.ChatID)
	require.Equal(t, "user-a", record.ChallengerUserID)

	// 记录可从存储层读回
	loaded, err := f.svc.GetBattle(context.Background(), battle.ID, "monster-a")
	require.NoError(t, err)
	require.Equal(t, record.BattleID, loaded.BattleID)
}

func TestAcceptOnlyByOpponent(t *testing.T) {
	f := newServiceFixture(t)
	battle, err := f.svc.Challenge(context.Background(), "monster-a", "monster-b", "")
	require.NoError(t, err)

	_, err = f.svc.Accept(context.Background(), battle.ID, "monster-a")
	requireBattleCode(t, err, xerrors.CodeBattleNotFound)
}

func TestAcceptRejectsExhaustedUser(t *testing.T) {
	f := newServiceFixture(t)
	battle, err := f.svc.Challenge(context.Background(), "monster-a", "monster-b", "")
	require.NoError(t, err)

	f.userRepo.users["user-b"].Energy = 2

	_, err = f.svc.Accept(context.Background(), battle.ID, "monster-b")
	requireBattleCode(t, err, xerrors.CodeInsufficientEnergy)
	require.Equal(t, entity.BattleStatusPending, f.battleRepo.get(battle.ID).Status)
}

func TestRejectMovesStatusOnce(t *testing.T) {
	f := newServiceFixture(t)
	battle, err := f.svc.Challenge(context.Background(), "monster-a", "monster-b", "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Reject(context.Background(), battle.ID, "monster-b"))
	require.Equal(t, entity.BattleStatusRejected, f.battleRepo.get(battle.ID).Status)

	err = f.svc.Reject(context.Background(), battle.ID, "monster-b")
	requireBattleCode(t, err, xerrors.CodeBattleInvalidStatus)
}

func TestGetBattleHidesFromOutsiders(t *testing.T) {
	f := newServiceFixture(t)
	f.seedRecord(t, newTestRecord(1000))

	_, err := f.svc.GetBattle(context.Background(), "battle-1", "monster-x")
	requireBattleCode(t, err, xerrors.CodeBattleNotFound)
}

func TestGetBattleMissingRecord(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.GetBattle(context.Background(), "battle-gone", "monster-a")
	requireBattleCode(t, err, xerrors.CodeBattleNotFound)
}

func TestPerformActionAppliesTurnAndPersists(t *testing.T) {
	f := newServiceFixture(t)
	f.seedRecord(t, newTestRecord(1000))

	record, outcome, err := f.svc.PerformAction(context.Background(), ActionInput{
		BattleID:  "battle-1",
		MonsterID: "monster-a",
		AttackID:  "atk-1",
	})
	require.NoError(t, err)
	require.Equal(t, 14, outcome.Damage)
	require.Equal(t, 86, record.OpponentHP)

	// 回写走 KEEPTTL，不给战斗续命
	require.Equal(t, 1, f.kv.keepTTLCalls)

	loaded, err := f.svc.GetBattle(context.Background(), "battle-1", "monster-b")
	require.NoError(t, err)
	require.Equal(t, 86, loaded.OpponentHP)
	require.Equal(t, "monster-b", loaded.CurrentTurnMonsterID)

	// 锁已释放，下一回合可以正常提交
	_, _, err = f.svc.PerformAction(context.Background(), ActionInput{
		BattleID:  "battle-1",
		MonsterID: "monster-b",
		AttackID:  "atk-2",
	})
	require.NoError(t, err)
}

func TestPerformActionBusyWhenLockHeld(t *testing.T) {
	f := newServiceFixture(t)
	f.seedRecord(t, newTestRecord(1000))

	ok, err := f.kv.AcquireLock(context.Background(), battleLockKey("battle-1"), time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, _, err = f.svc.PerformAction(context.Background(), ActionInput{
		BattleID:  "battle-1",
		MonsterID: "monster-a",
		AttackID:  "atk-1",
	})
	requireBattleCode(t, err, xerrors.CodeBattleBusy)

	appErr, _ := xerrors.AsAppError(err)
	require.True(t, appErr.IsRetryable())

	// 被拒的提交不产生状态变更
	loaded, loadErr := f.svc.GetBattle(context.Background(), "battle-1", "monster-a")
	require.NoError(t, loadErr)
	require.Equal(t, 100, loaded.OpponentHP)
	require.Equal(t, 0, loaded.TurnNumber)
}

func TestPerformActionNonParticipant(t *testing.T) {
	f := newServiceFixture(t)
	f.seedRecord(t, newTestRecord(1000))

	_, _, err := f.svc.PerformAction(context.Background(), ActionInput{
		BattleID:  "battle-1",
		MonsterID: "monster-x",
		AttackID:  "atk-1",
	})
	requireBattleCode(t, err, xerrors.CodeBattleNotFound)
}

func TestPerformActionFinishedBattle(t *testing.T) {
	f := newServiceFixture(t)
	record := newTestRecord(1000)
	record.WinnerMonsterID = "monster-b"
	f.seedRecord(t, record)

	_, _, err := f.svc.PerformAction(context.Background(), ActionInput{
		BattleID:  "battle-1",
		MonsterID: "monster-a",
		AttackID:  "atk-1",
	})
	requireBattleCode(t, err, xerrors.CodeBattleFinished)
}

func TestPerformActionKnockoutRunsCompletion(t *testing.T) {
	f := newServiceFixture(t)
	f.battleRepo.battles["battle-1"] = &entity.MonsterBattle{
		ID:                  "battle-1",
		ChallengerMonsterID: "monster-a",
		OpponentMonsterID:   "monster-b",
		Status:              entity.BattleStatusAccepted,
	}
	record := newTestRecord(1000)
	record.OpponentHP = 10
	f.seedRecord(t, record)

	persisted, outcome, err := f.svc.PerformAction(context.Background(), ActionInput{
		BattleID:  "battle-1",
		MonsterID: "monster-a",
		AttackID:  "atk-1",
	})
	require.NoError(t, err)
	require.True(t, outcome.Terminal)
	require.Equal(t, "monster-a", outcome.WinnerMonsterID)

	// 结算管线已跑：行状态 FINISHED，记录带终局数据回写
	battle := f.battleRepo.get("battle-1")
	require.Equal(t, entity.BattleStatusFinished, battle.Status)
	require.Equal(t, "monster-a", battle.WinnerMonsterID.String)

	require.Equal(t, "monster-a", persisted.WinnerMonsterID)
	require.NotNil(t, persisted.ChallengerReward)

	loaded, err := f.svc.GetBattle(context.Background(), "battle-1", "monster-b")
	require.NoError(t, err)
	require.True(t, loaded.IsFinished())
}

func TestPerformActionCorruptRecordPurged(t *testing.T) {
	f := newServiceFixture(t)
	require.NoError(t, f.kv.SetWithTTL(context.Background(), battleKey("battle-1"), "{broken", time.Minute))

	_, _, err := f.svc.PerformAction(context.Background(), ActionInput{
		BattleID:  "battle-1",
		MonsterID: "monster-a",
		AttackID:  "atk-1",
	})
	requireBattleCode(t, err, xerrors.CodeBattleRecordCorrupt)

	// 损坏记录被清掉，后续查询走不存在路径
	_, err = f.svc.GetBattle(context.Background(), "battle-1", "monster-a")
	requireBattleCode(t, err, xerrors.CodeBattleNotFound)
}

func TestSetReadyMarksParticipant(t *testing.T) {
	f := newServiceFixture(t)
	f.seedRecord(t, newTestRecord(1000))

	record, err := f.svc.SetReady(context.Background(), "battle-1", "monster-b")
	require.NoError(t, err)
	require.True(t, record.OpponentReady)
	require.False(t, record.ChallengerReady)

	loaded, err := f.svc.GetBattle(context.Background(), "battle-1", "monster-a")
	require.NoError(t, err)
	require.True(t, loaded.OpponentReady)
}

func TestRegisterSocketStoresConnectionID(t *testing.T) {
	f := newServiceFixture(t)
	f.seedRecord(t, newTestRecord(1000))

	record, err := f.svc.RegisterSocket(context.Background(), "battle-1", "monster-a", "sock-9")
	require.NoError(t, err)
	require.Equal(t, "sock-9", record.ChallengerSocketID)
}
