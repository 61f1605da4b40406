package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aarondl/sqlboiler/v4/boil"
	"github.com/aarondl/sqlboiler/v4/types"
	"github.com/ericlagergren/decimal"
	"github.com/redis/go-redis/v9"

	"monstro-self/internal/repository/entity"
)

// dec 构造 decimal 修正系数，value × 10^-scale
func dec(value int64, scale int) types.Decimal {
	return types.NewDecimal(decimal.New(value, scale))
}

// memKV 测试用内存键值存储，行为对齐 redis 包装层
type memKV struct {
	mu    sync.Mutex
	data  map[string]string
	locks map[string]bool

	keepTTLCalls int
	getErr       error
	setErr       error
	lockErr      error
}

func newMemKV() *memKV {
	return &memKV{
		data:  make(map[string]string),
		locks: make(map[string]bool),
	}
}

func kvString(value interface{}) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (m *memKV) GetString(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	value, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memKV) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = kvString(value)
	return nil
}

func (m *memKV) SetKeepTTL(ctx context.Context, key string, value interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.keepTTLCalls++
	m.data[key] = kvString(value)
	return nil
}

func (m *memKV) DeleteKey(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.locks, key)
	}
	return nil
}

func (m *memKV) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lockErr != nil {
		return false, m.lockErr
	}
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *memKV) ReleaseLock(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

// fakeMonsterRepo 内存怪兽仓储
type fakeMonsterRepo struct {
	mu       sync.Mutex
	monsters map[string]*entity.Monster

	expCalls     map[string]int
	satietyCalls map[string]int
	expErr       error
}

func newFakeMonsterRepo(monsters ...*entity.Monster) *fakeMonsterRepo {
	repo := &fakeMonsterRepo{
		monsters:     make(map[string]*entity.Monster),
		expCalls:     make(map[string]int),
		satietyCalls: make(map[string]int),
	}
	for _, m := range monsters {
		repo.monsters[m.ID] = m
	}
	return repo
}

func (r *fakeMonsterRepo) GetByID(ctx context.Context, monsterID string) (*entity.Monster, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monsters[monsterID]
	if !ok {
		return nil, fmt.Errorf("monster not found: %s", monsterID)
	}
	return m, nil
}

func (r *fakeMonsterRepo) AddExperience(ctx context.Context, monsterID string, amount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.expErr != nil {
		return r.expErr
	}
	r.expCalls[monsterID] += amount
	return nil
}

func (r *fakeMonsterRepo) AddExperienceTx(ctx context.Context, exec boil.ContextExecutor, monsterID string, amount int) error {
	return r.AddExperience(ctx, monsterID, amount)
}

func (r *fakeMonsterRepo) AddSatiety(ctx context.Context, monsterID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.satietyCalls[monsterID] += delta
	return nil
}

func (r *fakeMonsterRepo) AddSatietyTx(ctx context.Context, exec boil.ContextExecutor, monsterID string, delta int) error {
	return r.AddSatiety(ctx, monsterID, delta)
}

func (r *fakeMonsterRepo) experienceOf(monsterID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expCalls[monsterID]
}

func (r *fakeMonsterRepo) satietyDeltaOf(monsterID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.satietyCalls[monsterID]
}

// fakeUserRepo 内存用户仓储
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User

	energyCalls map[string]int
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		users:       make(map[string]*entity.User),
		energyCalls: make(map[string]int),
	}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user not found: %s", userID)
	}
	return u, nil
}

func (r *fakeUserRepo) AddEnergy(ctx context.Context, userID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.energyCalls[userID] += delta
	return nil
}

func (r *fakeUserRepo) AddEnergyTx(ctx context.Context, exec boil.ContextExecutor, userID string, delta int) error {
	return r.AddEnergy(ctx, userID, delta)
}

func (r *fakeUserRepo) energyDeltaOf(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.energyCalls[userID]
}

// fakeBattleRepo 内存战斗仓储
type fakeBattleRepo struct {
	mu      sync.Mutex
	battles map[string]*entity.MonsterBattle

	finishErr error
	nextID    int
}

func newFakeBattleRepo(battles ...*entity.MonsterBattle) *fakeBattleRepo {
	repo := &fakeBattleRepo{battles: make(map[string]*entity.MonsterBattle)}
	for _, b := range battles {
		repo.battles[b.ID] = b
	}
	return repo
}

func (r *fakeBattleRepo) Create(ctx context.Context, battle *entity.MonsterBattle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	if battle.ID == "" {
		battle.ID = fmt.Sprintf("battle-%d", r.nextID)
	}
	battle.Status = entity.BattleStatusPending
	battle.CreatedAt = time.Now()
	r.battles[battle.ID] = battle
	return nil
}

func (r *fakeBattleRepo) GetByID(ctx context.Context, battleID string) (*entity.MonsterBattle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[battleID]
	if !ok {
		return nil, fmt.Errorf("battle not found: %s", battleID)
	}
	return b, nil
}

func (r *fakeBattleRepo) UpdateStatus(ctx context.Context, battleID, fromStatus, toStatus string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.battles[battleID]
	if !ok || b.Status != fromStatus {
		return false, nil
	}
	b.Status = toStatus
	return true, nil
}

func (r *fakeBattleRepo) Finish(ctx context.Context, battleID, winnerMonsterID string, battleLog []byte) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finishErr != nil {
		return false, r.finishErr
	}
	b, ok := r.battles[battleID]
	if !ok {
		return false, fmt.Errorf("battle not found: %s", battleID)
	}
	if b.Status == entity.BattleStatusFinished {
		return false, nil
	}
	b.Status = entity.BattleStatusFinished
	b.WinnerMonsterID = nullableString(winnerMonsterID)
	b.BattleLog = battleLog
	return true, nil
}

func (r *fakeBattleRepo) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (r *fakeBattleRepo) get(battleID string) *entity.MonsterBattle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.battles[battleID]
}

// fakeEventRepo 内存审计事件仓储
type fakeEventRepo struct {
	mu     sync.Mutex
	events []*entity.BattleEvent
}

func (r *fakeEventRepo) Create(ctx context.Context, event *entity.BattleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) CreateBatch(ctx context.Context, events []*entity.BattleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

func (r *fakeEventRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// fakeSkillRepo 内存技能配置仓储
type fakeSkillRepo struct {
	byMonster  map[string][]*entity.Skill
	rewardPool []*entity.Skill
	poolErr    error
}

func (r *fakeSkillRepo) GetByID(ctx context.Context, skillID string) (*entity.Skill, error) {
	for _, skills := range r.byMonster {
		for _, s := range skills {
			if s.ID == skillID {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("skill not found: %s", skillID)
}

func (r *fakeSkillRepo) ListForMonster(ctx context.Context, monsterID string) ([]*entity.Skill, error) {
	return r.byMonster[monsterID], nil
}

func (r *fakeSkillRepo) ListRewardPool(ctx context.Context) ([]*entity.Skill, error) {
	if r.poolErr != nil {
		return nil, r.poolErr
	}
	return r.rewardPool, nil
}

// fakeMonsterSkillRepo 内存技能习得仓储
type fakeMonsterSkillRepo struct {
	mu      sync.Mutex
	learned map[string]bool
}

func newFakeMonsterSkillRepo() *fakeMonsterSkillRepo {
	return &fakeMonsterSkillRepo{learned: make(map[string]bool)}
}

func monsterSkillKey(monsterID, skillID string) string {
	return monsterID + ":" + skillID
}

func (r *fakeMonsterSkillRepo) Has(ctx context.Context, monsterID, skillID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.learned[monsterSkillKey(monsterID, skillID)], nil
}

func (r *fakeMonsterSkillRepo) Learn(ctx context.Context, monsterID, skillID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := monsterSkillKey(monsterID, skillID)
	if r.learned[key] {
		return false, nil
	}
	r.learned[key] = true
	return true, nil
}

func (r *fakeMonsterSkillRepo) LearnTx(ctx context.Context, exec boil.ContextExecutor, monsterID, skillID string) (bool, error) {
	return r.Learn(ctx, monsterID, skillID)
}

// fakeFoodRepo 内存食物仓储
type fakeFoodRepo struct {
	mu      sync.Mutex
	foods   []*entity.Food
	grants  map[string]int
	listErr error
}

func newFakeFoodRepo(foods ...*entity.Food) *fakeFoodRepo {
	return &fakeFoodRepo{foods: foods, grants: make(map[string]int)}
}

func (r *fakeFoodRepo) List(ctx context.Context) ([]*entity.Food, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.foods, nil
}

func (r *fakeFoodRepo) GrantToUser(ctx context.Context, userID, foodID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[userID+":"+foodID] += quantity
	return nil
}

func (r *fakeFoodRepo) GrantToUserTx(ctx context.Context, exec boil.ContextExecutor, userID, foodID string, quantity int) error {
	return r.GrantToUser(ctx, userID, foodID, quantity)
}

// fakeMutagenRepo 内存诱变剂仓储
type fakeMutagenRepo struct {
	mu       sync.Mutex
	mutagens []*entity.Mutagen
	grants   map[string]string
}

func newFakeMutagenRepo(mutagens ...*entity.Mutagen) *fakeMutagenRepo {
	return &fakeMutagenRepo{mutagens: mutagens, grants: make(map[string]string)}
}

func (r *fakeMutagenRepo) List(ctx context.Context) ([]*entity.Mutagen, error) {
	return r.mutagens, nil
}

func (r *fakeMutagenRepo) GrantToMonster(ctx context.Context, monsterID, mutagenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.grants[monsterID] = mutagenID
	return nil
}
