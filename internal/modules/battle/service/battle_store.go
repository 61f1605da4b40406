package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"monstro-self/internal/pkg/log"
	"monstro-self/internal/pkg/xerrors"
)

// KVStore 战斗记录依赖的键值存储操作子集
// 生产环境由 internal/pkg/redis.Client 满足，测试注入内存假实现
type KVStore interface {
	GetString(ctx context.Context, key string) (string, error)
	SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetKeepTTL(ctx context.Context, key string, value interface{}) error
	DeleteKey(ctx context.Context, keys ...string) error
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}

// BattleStore 战斗记录的 Redis 存取层
type BattleStore struct {
	kv     KVStore
	logger log.Logger
}

// NewBattleStore 创建战斗记录存取层
func NewBattleStore(kv KVStore, logger log.Logger) *BattleStore {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BattleStore{
		kv:     kv,
		logger: logger.With("component", "battle_store"),
	}
}

func battleKey(battleID string) string {
	return "battle:" + battleID
}

func battleLockKey(battleID string) string {
	return "battle:lock:" + battleID
}

// Load 读取并校验战斗记录
// 键不存在（含 TTL 过期）一律视为战斗不存在
func (s *BattleStore) Load(ctx context.Context, battleID string) (*BattleRecord, error) {
	if battleID == "" {
		return nil, xerrors.New(xerrors.CodeInvalidParams, "battle_id 不能为空")
	}

	raw, err := s.kv.GetString(ctx, battleKey(battleID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, xerrors.NewBattleNotFoundError(battleID)
		}
		return nil, xerrors.NewWithError(xerrors.CodeCacheError, "读取战斗记录失败", err).
			WithBattle(battleID)
	}

	record, err := DecodeRecord(battleID, []byte(raw))
	if err != nil {
		// 损坏的记录不可修复，直接删除，让上层走不存在路径重建
		s.logger.ErrorContext(ctx, "battle record corrupt, purging", err,
			log.String("battle_id", battleID))
		if delErr := s.kv.DeleteKey(ctx, battleKey(battleID)); delErr != nil {
			s.logger.WarnContext(ctx, "purge corrupt battle record failed",
				log.String("battle_id", battleID),
				log.Any("error", delErr))
		}
		return nil, err
	}
	return record, nil
}

// Create 写入新战斗记录并设置 TTL
func (s *BattleStore) Create(ctx context.Context, record *BattleRecord, ttl time.Duration) error {
	data, err := EncodeRecord(record)
	if err != nil {
		return err
	}
	if err := s.kv.SetWithTTL(ctx, battleKey(record.BattleID), data, ttl); err != nil {
		return xerrors.NewWithError(xerrors.CodeCacheError, "写入战斗记录失败", err).
			WithBattle(record.BattleID)
	}
	return nil
}

// Persist 回写战斗记录，保留现有 TTL（不因回合推进而续命）
func (s *BattleStore) Persist(ctx context.Context, record *BattleRecord) error {
	data, err := EncodeRecord(record)
	if err != nil {
		return err
	}
	if err := s.kv.SetKeepTTL(ctx, battleKey(record.BattleID), data); err != nil {
		return xerrors.NewWithError(xerrors.CodeCacheError, "回写战斗记录失败", err).
			WithBattle(record.BattleID)
	}
	return nil
}

// Delete 删除战斗记录（通常留给 TTL 自行过期，仅异常路径使用）
func (s *BattleStore) Delete(ctx context.Context, battleID string) error {
	if err := s.kv.DeleteKey(ctx, battleKey(battleID)); err != nil {
		return xerrors.NewWithError(xerrors.CodeCacheError, "删除战斗记录失败", err).
			WithBattle(battleID)
	}
	return nil
}

// Lock 获取单场战斗的咨询锁，已被持有时返回 BattleBusy 拒绝
func (s *BattleStore) Lock(ctx context.Context, battleID string, ttl time.Duration) error {
	ok, err := s.kv.AcquireLock(ctx, battleLockKey(battleID), ttl)
	if err != nil {
		return xerrors.NewWithError(xerrors.CodeCacheError, "获取战斗锁失败", err).
			WithBattle(battleID)
	}
	if !ok {
		return xerrors.NewBattleBusyError(battleID)
	}
	return nil
}

// Unlock 释放战斗锁，失败只记日志（锁自带 TTL 兜底）
func (s *BattleStore) Unlock(ctx context.Context, battleID string) {
	if err := s.kv.ReleaseLock(ctx, battleLockKey(battleID)); err != nil {
		s.logger.WarnContext(ctx, "release battle lock failed",
			log.String("battle_id", battleID),
			log.Any("error", err))
	}
}
