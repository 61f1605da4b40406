package service

import (
	"math"
	"math/rand"
	"time"

	"monstro-self/internal/pkg/rulescache"
	"monstro-self/internal/pkg/xerrors"
)

// ActionInput 一次回合提交
type ActionInput struct {
	BattleID  string
	MonsterID string
	AttackID  string
	DefenseID string
}

// TurnOutcome 回合解算结果
type TurnOutcome struct {
	// ActionKind 实际执行的动作分支（attack/defense/attack_defense/pass/auto_pass）
	ActionKind string
	// Damage 本回合对防守方造成的最终伤害
	Damage int
	// Evaded 防守方是否闪避成功
	Evaded bool
	// Terminal 本回合是否打出了终结（某方 HP 归零）
	Terminal bool
	// WinnerMonsterID 终结时的胜者
	WinnerMonsterID string
}

// 组合动作分支标记（指标用）
const actionKindAttackDefense = "attack_defense"

// ActionResolver 回合解算器
// 纯内存变换：不读库、不写库，随机源可注入以便测试
type ActionResolver struct {
	rng func() float64
}

// NewActionResolver 创建回合解算器
func NewActionResolver() *ActionResolver {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &ActionResolver{rng: rng.Float64}
}

// NewActionResolverWithRNG 注入随机源（测试用）
func NewActionResolverWithRNG(rng func() float64) *ActionResolver {
	return &ActionResolver{rng: rng}
}

// Resolve 以一个原子回合步变换战斗记录
// 前置校验（存在性、回合归属、终局状态）由调用方完成，这里只做状态演进
func (ar *ActionResolver) Resolve(record *BattleRecord, input ActionInput, rules rulescache.Rules, nowMs int64) (*TurnOutcome, error) {
	if record.IsFinished() {
		return nil, xerrors.NewBattleFinishedError(record.BattleID, record.WinnerMonsterID)
	}
	if record.CurrentTurnMonsterID != input.MonsterID {
		return nil, xerrors.NewNotYourTurnError(record.BattleID, input.MonsterID)
	}

	actorID := input.MonsterID
	defenderID := record.OtherMonsterID(actorID)

	// 1. 计时：越过宽限窗口的迟到提交按弃权处理
	EnsureTurnTiming(record, rules, nowMs)
	attackID, defenseID := input.AttackID, input.DefenseID
	forcedPass := IsTurnExpired(record, nowMs)
	if forcedPass {
		attackID, defenseID = "", ""
	}

	// 2. 从目录快照查技能（不查库；陈旧 ID 视为未选择）
	attack := record.FindAttack(actorID, attackID)
	defense := record.FindDefense(actorID, defenseID)

	// 3. 耐力门控：付不起全部时攻击优先
	attack, defense = applyStaminaGate(record.StaminaOf(actorID), attack, defense)

	outcome := &TurnOutcome{}

	// 4-6. 攻击结算
	if attack != nil {
		ar.resolveAttack(record, actorID, defenderID, attack, rules, nowMs, outcome)
	}

	// 7. 本回合选择的防御作为下一次来袭攻击的姿态
	if defense != nil {
		record.ActiveDefense = &ActiveDefense{
			MonsterID:       actorID,
			SkillID:         defense.ID,
			Name:            defense.Name,
			DefenseModifier: defense.DefenseModifier,
			EvasionModifier: defense.EvasionModifier,
			SetAtTurn:       record.TurnNumber,
		}
		record.AppendLog(BattleLogEntry{
			Turn:           record.TurnNumber,
			ActorMonsterID: actorID,
			Kind:           ActionKindDefense,
			ActionID:       defense.ID,
			ActionName:     defense.Name,
			Modifier:       defense.DefenseModifier,
			Cooldown:       defense.Cooldown,
			StaminaCost:    defense.StaminaCost,
			Timestamp:      nowMs,
		})
	}

	// 8. 耐力经济：扣除已执行动作的开销，按分支回复
	spent := 0
	if attack != nil {
		spent += attack.StaminaCost
	}
	if defense != nil {
		spent += defense.StaminaCost
	}
	regen := branchRegen(attack != nil, defense != nil, rules)
	record.SetStamina(actorID, record.StaminaOf(actorID)-spent+regen)

	// 9-10. 纯弃权也要留痕
	if attack == nil && defense == nil {
		kind := ActionKindPass
		if forcedPass {
			kind = ActionKindAutoPass
		}
		record.AppendLog(BattleLogEntry{
			Turn:           record.TurnNumber,
			ActorMonsterID: actorID,
			Kind:           kind,
			Timestamp:      nowMs,
		})
	}

	outcome.ActionKind = classifyAction(attack != nil, defense != nil, forcedPass)

	// 11. 回合交接
	record.CurrentTurnMonsterID = defenderID
	record.TurnNumber++
	ResetTurnTiming(record, rules, nowMs)

	// 12. 终局探测（结算管线由调用方驱动）
	if winner := DetectWinner(record); winner != "" {
		outcome.Terminal = true
		outcome.WinnerMonsterID = winner
	}

	return outcome, nil
}

// resolveAttack 结算一次已执行的攻击（含防守方挂起防御）
func (ar *ActionResolver) resolveAttack(record *BattleRecord, actorID, defenderID string, attack *SkillSnapshot, rules rulescache.Rules, nowMs int64, outcome *TurnOutcome) {
	rawDamage := int(math.Round(attack.StrengthModifier * float64(record.StatsOf(actorID).Strength)))

	finalDamage := rawDamage
	block := 0
	effect := ""

	// 挂起防御只对归属防守方的姿态生效，且无论挡没挡住都被消耗
	pending := record.ActiveDefense
	if pending != nil && pending.MonsterID == defenderID {
		evasionChance := clampFloat(
			pending.EvasionModifier*float64(record.StatsOf(defenderID).Evasion)/100,
			0, rules.EvasionCap,
		)
		if ar.rng() < evasionChance {
			// 闪避成功：零伤害，不再叠加格挡
			finalDamage = 0
			effect = EffectEvaded
			outcome.Evaded = true
		} else {
			block = int(math.Round(pending.DefenseModifier * float64(record.StatsOf(defenderID).Defense)))
			finalDamage = rawDamage - block
			if finalDamage < 0 {
				finalDamage = 0
			}
			if block > 0 {
				effect = EffectBlocked
			}
		}
		record.ActiveDefense = nil
	}

	record.SetHP(defenderID, record.HPOf(defenderID)-finalDamage)
	outcome.Damage = finalDamage

	record.AppendLog(BattleLogEntry{
		Turn:            record.TurnNumber,
		ActorMonsterID:  actorID,
		TargetMonsterID: defenderID,
		Kind:            ActionKindAttack,
		ActionID:        attack.ID,
		ActionName:      attack.Name,
		Modifier:        attack.StrengthModifier,
		Damage:          finalDamage,
		Block:           block,
		Effect:          effect,
		Cooldown:        attack.Cooldown,
		StaminaCost:     attack.StaminaCost,
		Timestamp:       nowMs,
	})
}

// applyStaminaGate 耐力不足以支付全部动作时的取舍
// 攻击优先：先弃防御，攻击单独也付不起再弃攻击，都付不起则双弃（纯弃权）
func applyStaminaGate(stamina int, attack, defense *SkillSnapshot) (*SkillSnapshot, *SkillSnapshot) {
	attackCost, defenseCost := 0, 0
	if attack != nil {
		attackCost = attack.StaminaCost
	}
	if defense != nil {
		defenseCost = defense.StaminaCost
	}
	if stamina >= attackCost+defenseCost {
		return attack, defense
	}
	if attack != nil && stamina >= attackCost {
		return attack, nil
	}
	if defense != nil && stamina >= defenseCost {
		return nil, defense
	}
	return nil, nil
}

// branchRegen 按执行分支取耐力回复常数
// 攻击+防御的组合回合走攻击分支
func branchRegen(attacked, defended bool, rules rulescache.Rules) int {
	switch {
	case attacked:
		return rules.StaminaRegenAttack
	case defended:
		return rules.StaminaRegenDefense
	default:
		return rules.StaminaRegenPass
	}
}

func classifyAction(attacked, defended, forcedPass bool) string {
	switch {
	case attacked && defended:
		return actionKindAttackDefense
	case attacked:
		return ActionKindAttack
	case defended:
		return ActionKindDefense
	case forcedPass:
		return ActionKindAutoPass
	default:
		return ActionKindPass
	}
}

// DetectWinner 终局探测：某方 HP 归零则对方获胜
// 每回合只有一方掉血，两个条件互斥
func DetectWinner(record *BattleRecord) string {
	if record.ChallengerHP == 0 {
		return record.OpponentMonsterID
	}
	if record.OpponentHP == 0 {
		return record.ChallengerMonsterID
	}
	return ""
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
