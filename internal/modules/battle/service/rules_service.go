package service

import (
	"context"
	"time"

	"monstro-self/internal/pkg/config"
	"monstro-self/internal/pkg/rulescache"
)

// 战斗规则默认值（可由环境变量覆盖，运营调参不改代码）
const (
	defaultTurnLimitMs = 15000 // 回合预算 15s
	defaultGraceMs     = 250   // 网络抖动宽限 250ms

	defaultRecordTTL = 30 * time.Minute
	defaultLockTTL   = 5 * time.Second

	// 耐力回复不对称：跳过回合回得最多，鼓励喘息
	defaultRegenAttack  = 5
	defaultRegenDefense = 10
	defaultRegenPass    = 15

	defaultSatietyCost = 10
	defaultEnergyCost  = 5

	defaultWinnerExp = 50
	defaultLoserExp  = 10

	defaultEvasionCap = 0.95

	defaultFoodDropRate    = 0.95
	defaultFoodQtyMax      = 3
	defaultSkillDropRate   = 0.10
	defaultMutagenDropRate = 0.25
)

// LoadRulesFromEnv 从环境变量加载战斗规则
// 作为 rulescache.Loader 注入，缓存过期后重新读取
func LoadRulesFromEnv(ctx context.Context) (rulescache.Rules, error) {
	return rulescache.Rules{
		TurnLimitMs: int64(config.GetEnvInt("BATTLE_TURN_LIMIT_MS", defaultTurnLimitMs)),
		GraceMs:     int64(config.GetEnvInt("BATTLE_GRACE_MS", defaultGraceMs)),

		RecordTTL: config.GetEnvDuration("BATTLE_RECORD_TTL", defaultRecordTTL),
		LockTTL:   config.GetEnvDuration("BATTLE_LOCK_TTL", defaultLockTTL),

		StaminaRegenAttack:  config.GetEnvInt("BATTLE_REGEN_ATTACK", defaultRegenAttack),
		StaminaRegenDefense: config.GetEnvInt("BATTLE_REGEN_DEFENSE", defaultRegenDefense),
		StaminaRegenPass:    config.GetEnvInt("BATTLE_REGEN_PASS", defaultRegenPass),

		SatietyCost: config.GetEnvInt("BATTLE_SATIETY_COST", defaultSatietyCost),
		EnergyCost:  config.GetEnvInt("BATTLE_ENERGY_COST", defaultEnergyCost),

		WinnerExp: config.GetEnvInt("BATTLE_WINNER_EXP", defaultWinnerExp),
		LoserExp:  config.GetEnvInt("BATTLE_LOSER_EXP", defaultLoserExp),

		EvasionCap: config.GetEnvFloat("BATTLE_EVASION_CAP", defaultEvasionCap),

		FoodDropRate:    config.GetEnvFloat("BATTLE_FOOD_DROP_RATE", defaultFoodDropRate),
		FoodQtyMax:      config.GetEnvInt("BATTLE_FOOD_QTY_MAX", defaultFoodQtyMax),
		SkillDropRate:   config.GetEnvFloat("BATTLE_SKILL_DROP_RATE", defaultSkillDropRate),
		MutagenDropRate: config.GetEnvFloat("BATTLE_MUTAGEN_DROP_RATE", defaultMutagenDropRate),
	}, nil
}

// NewRulesCache 创建默认的规则缓存
func NewRulesCache(cacheTTL time.Duration) *rulescache.Cache {
	return rulescache.New(cacheTTL, LoadRulesFromEnv, nil, nil)
}
