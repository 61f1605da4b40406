// Package service 聚合战斗服的业务服务实现：战斗记录、回合解算与结算管线。
package service

import (
	"encoding/json"

	"github.com/aarondl/sqlboiler/v4/types"

	"monstro-self/internal/pkg/xerrors"
	"monstro-self/internal/repository/entity"
)

// RecordSchemaVersion 战斗记录序列化格式版本
// 版本不匹配或字段缺失的记录一律判定为损坏，快速失败
const RecordSchemaVersion = 1

// StatSnapshot 创建战斗时拍下的怪兽属性快照
// 与实时怪兽行解耦：战斗期间怪兽被修改不影响本场结果
type StatSnapshot struct {
	Strength int `json:"strength"`
	Defense  int `json:"defense"`
	Evasion  int `json:"evasion"`
}

// SkillSnapshot 技能目录快照（创建时固定，回合中不查库）
type SkillSnapshot struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Kind             string  `json:"kind"`
	StrengthModifier float64 `json:"strength_modifier"`
	DefenseModifier  float64 `json:"defense_modifier"`
	EvasionModifier  float64 `json:"evasion_modifier"`
	StaminaCost      int     `json:"stamina_cost"`
	Cooldown         int     `json:"cooldown"`
}

// ActiveDefense 挂起的防御姿态，整场战斗同一时刻至多一个
// 由下一次指向持有者的攻击消耗；攻击者不出手则永不触发
type ActiveDefense struct {
	MonsterID       string  `json:"monster_id"`
	SkillID         string  `json:"skill_id"`
	Name            string  `json:"name"`
	DefenseModifier float64 `json:"defense_modifier"`
	EvasionModifier float64 `json:"evasion_modifier"`
	SetAtTurn       int     `json:"set_at_turn"`
}

// 回合动作类型
const (
	ActionKindAttack   = "attack"
	ActionKindDefense  = "defense"
	ActionKindPass     = "pass"
	ActionKindAutoPass = "auto_pass"
)

// 攻击结算效果标记
const (
	EffectEvaded  = "evaded"
	EffectBlocked = "blocked"
)

// BattleLogEntry 单条回合日志，追加后不再修改
type BattleLogEntry struct {
	Turn            int     `json:"turn"`
	ActorMonsterID  string  `json:"actor_monster_id"`
	TargetMonsterID string  `json:"target_monster_id,omitempty"`
	Kind            string  `json:"kind"`
	ActionID        string  `json:"action_id,omitempty"`
	ActionName      string  `json:"action_name,omitempty"`
	Modifier        float64 `json:"modifier,omitempty"`
	Damage          int     `json:"damage"`
	Block           int     `json:"block"`
	Effect          string  `json:"effect,omitempty"`
	Cooldown        int     `json:"cooldown,omitempty"`
	StaminaCost     int     `json:"stamina_cost"`
	Timestamp       int64   `json:"timestamp"`
}

// RewardSummary 结算后的奖励摘要（经验必有，其余按掉落结果）
type RewardSummary struct {
	Experience   int    `json:"experience"`
	FoodID       string `json:"food_id,omitempty"`
	FoodQuantity int    `json:"food_quantity,omitempty"`
	SkillID      string `json:"skill_id,omitempty"`
	MutagenID    string `json:"mutagen_id,omitempty"`
}

// BattleRecord 一场进行中战斗的完整状态
// 存活于 Redis（battle:{battleId}，TTL 限定），战斗期间的唯一事实来源
type BattleRecord struct {
	SchemaVersion int `json:"schema_version"`

	// 身份
	BattleID            string `json:"battle_id"`
	ChallengerMonsterID string `json:"challenger_monster_id"`
	OpponentMonsterID   string `json:"opponent_monster_id"`
	ChallengerUserID    string `json:"challenger_user_id"`
	OpponentUserID      string `json:"opponent_user_id"`

	// 战斗状态
	ChallengerHP         int          `json:"challenger_hp"`
	OpponentHP           int          `json:"opponent_hp"`
	ChallengerMaxHP      int          `json:"challenger_max_hp"`
	OpponentMaxHP        int          `json:"opponent_max_hp"`
	ChallengerStamina    int          `json:"challenger_stamina"`
	OpponentStamina      int          `json:"opponent_stamina"`
	ChallengerStaminaCap int          `json:"challenger_stamina_cap"`
	OpponentStaminaCap   int          `json:"opponent_stamina_cap"`
	ChallengerStats      StatSnapshot `json:"challenger_stats"`
	OpponentStats        StatSnapshot `json:"opponent_stats"`

	// 技能目录快照
	ChallengerAttacks  []SkillSnapshot `json:"challenger_attacks"`
	ChallengerDefenses []SkillSnapshot `json:"challenger_defenses"`
	OpponentAttacks    []SkillSnapshot `json:"opponent_attacks"`
	OpponentDefenses   []SkillSnapshot `json:"opponent_defenses"`

	// 回合状态
	CurrentTurnMonsterID string `json:"current_turn_monster_id"`
	TurnNumber           int    `json:"turn_number"`
	TurnStartMs          int64  `json:"turn_start_ms"`
	TurnEndsAtMs         int64  `json:"turn_ends_at_ms"`
	TurnLimitMs          int64  `json:"turn_limit_ms"`
	GraceMs              int64  `json:"grace_ms"`

	// 挂起防御（至多一个）
	ActiveDefense *ActiveDefense `json:"active_defense,omitempty"`

	// 历史
	Logs          []BattleLogEntry `json:"logs"`
	LastActionLog *BattleLogEntry  `json:"last_action_log,omitempty"`

	// 会话
	ChallengerSocketID string `json:"challenger_socket_id,omitempty"`
	OpponentSocketID   string `json:"opponent_socket_id,omitempty"`
	ChallengerReady    bool   `json:"challenger_ready"`
	OpponentReady      bool   `json:"opponent_ready"`
	ChatID             string `json:"chat_id,omitempty"`

	// 终局
	WinnerMonsterID  string         `json:"winner_monster_id,omitempty"`
	ChallengerReward *RewardSummary `json:"challenger_reward,omitempty"`
	OpponentReward   *RewardSummary `json:"opponent_reward,omitempty"`

	CreatedAtMs int64 `json:"created_at_ms"`
}

// IsFinished 检查战斗是否已产生胜者
func (r *BattleRecord) IsFinished() bool {
	return r.WinnerMonsterID != ""
}

// IsParticipant 检查怪兽是否为本场参战方
func (r *BattleRecord) IsParticipant(monsterID string) bool {
	return monsterID == r.ChallengerMonsterID || monsterID == r.OpponentMonsterID
}

// IsChallenger 检查怪兽是否为挑战方
func (r *BattleRecord) IsChallenger(monsterID string) bool {
	return monsterID == r.ChallengerMonsterID
}

// OtherMonsterID 返回对手怪兽 ID
func (r *BattleRecord) OtherMonsterID(monsterID string) string {
	if r.IsChallenger(monsterID) {
		return r.OpponentMonsterID
	}
	return r.ChallengerMonsterID
}

// HPOf 返回怪兽当前 HP
func (r *BattleRecord) HPOf(monsterID string) int {
	if r.IsChallenger(monsterID) {
		return r.ChallengerHP
	}
	return r.OpponentHP
}

// SetHP 设置怪兽 HP，夹在 [0, 初始值]
func (r *BattleRecord) SetHP(monsterID string, hp int) {
	if r.IsChallenger(monsterID) {
		r.ChallengerHP = clampInt(hp, 0, r.ChallengerMaxHP)
	} else {
		r.OpponentHP = clampInt(hp, 0, r.OpponentMaxHP)
	}
}

// StaminaOf 返回怪兽当前耐力
func (r *BattleRecord) StaminaOf(monsterID string) int {
	if r.IsChallenger(monsterID) {
		return r.ChallengerStamina
	}
	return r.OpponentStamina
}

// SetStamina 设置怪兽耐力，夹在 [0, 上限]
func (r *BattleRecord) SetStamina(monsterID string, stamina int) {
	if r.IsChallenger(monsterID) {
		r.ChallengerStamina = clampInt(stamina, 0, r.ChallengerStaminaCap)
	} else {
		r.OpponentStamina = clampInt(stamina, 0, r.OpponentStaminaCap)
	}
}

// StatsOf 返回怪兽属性快照
func (r *BattleRecord) StatsOf(monsterID string) StatSnapshot {
	if r.IsChallenger(monsterID) {
		return r.ChallengerStats
	}
	return r.OpponentStats
}

// FindAttack 从怪兽的攻击目录快照中查找技能
func (r *BattleRecord) FindAttack(monsterID, skillID string) *SkillSnapshot {
	if skillID == "" {
		return nil
	}
	catalog := r.OpponentAttacks
	if r.IsChallenger(monsterID) {
		catalog = r.ChallengerAttacks
	}
	return findSkill(catalog, skillID)
}

// FindDefense 从怪兽的防御目录快照中查找技能
func (r *BattleRecord) FindDefense(monsterID, skillID string) *SkillSnapshot {
	if skillID == "" {
		return nil
	}
	catalog := r.OpponentDefenses
	if r.IsChallenger(monsterID) {
		catalog = r.ChallengerDefenses
	}
	return findSkill(catalog, skillID)
}

// AppendLog 追加回合日志并刷新 lastActionLog
func (r *BattleRecord) AppendLog(entry BattleLogEntry) {
	r.Logs = append(r.Logs, entry)
	last := entry
	r.LastActionLog = &last
}

func findSkill(catalog []SkillSnapshot, skillID string) *SkillSnapshot {
	for i := range catalog {
		if catalog[i].ID == skillID {
			return &catalog[i]
		}
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewSkillSnapshot 从技能配置实体生成快照
func NewSkillSnapshot(skill *entity.Skill) SkillSnapshot {
	return SkillSnapshot{
		ID:               skill.ID,
		Name:             skill.Name,
		Kind:             skill.Kind,
		StrengthModifier: decimalToFloat(skill.StrengthModifier),
		DefenseModifier:  decimalToFloat(skill.DefenseModifier),
		EvasionModifier:  decimalToFloat(skill.EvasionModifier),
		StaminaCost:      skill.EnergyCost,
		Cooldown:         skill.Cooldown,
	}
}

// decimalToFloat 技能行里未设置的修正列内部指针为 nil，按 0 处理
func decimalToFloat(d types.Decimal) float64 {
	if d.Big == nil {
		return 0
	}
	f, _ := d.Float64()
	return f
}

// EncodeRecord 序列化战斗记录（带格式版本）
func EncodeRecord(record *BattleRecord) ([]byte, error) {
	if record == nil {
		return nil, xerrors.New(xerrors.CodeInvalidParams, "战斗记录不能为空")
	}
	record.SchemaVersion = RecordSchemaVersion
	data, err := json.Marshal(record)
	if err != nil {
		return nil, xerrors.NewWithError(xerrors.CodeInternalError, "序列化战斗记录失败", err)
	}
	return data, nil
}

// DecodeRecord 反序列化并校验战斗记录
// 任何格式异常都判定为记录损坏：宁可战斗不可用，不可带着坏数据继续结算
func DecodeRecord(battleID string, data []byte) (*BattleRecord, error) {
	var record BattleRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, xerrors.NewBattleRecordCorruptError(battleID, err)
	}
	if record.SchemaVersion != RecordSchemaVersion {
		return nil, xerrors.NewBattleRecordCorruptError(battleID, nil).
			WithMetadata("schema_version", record.SchemaVersion).
			WithMetadata("expected_version", RecordSchemaVersion)
	}
	if err := validateRecord(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func validateRecord(record *BattleRecord) error {
	corrupt := func(reason string) error {
		return xerrors.NewBattleRecordCorruptError(record.BattleID, nil).
			WithMetadata("reason", reason)
	}

	if record.BattleID == "" {
		return corrupt("battle_id 缺失")
	}
	if record.ChallengerMonsterID == "" || record.OpponentMonsterID == "" {
		return corrupt("参战怪兽 ID 缺失")
	}
	if record.ChallengerMonsterID == record.OpponentMonsterID {
		return corrupt("参战怪兽重复")
	}
	// 回合所有权必须恰好属于参战一方
	if !record.IsParticipant(record.CurrentTurnMonsterID) {
		return corrupt("回合所有者不是参战方")
	}
	if record.ChallengerHP < 0 || record.OpponentHP < 0 ||
		record.ChallengerStamina < 0 || record.OpponentStamina < 0 {
		return corrupt("HP/耐力出现负值")
	}
	if record.ChallengerMaxHP <= 0 || record.OpponentMaxHP <= 0 {
		return corrupt("HP 上限非法")
	}
	if record.ActiveDefense != nil && !record.IsParticipant(record.ActiveDefense.MonsterID) {
		return corrupt("挂起防御不属于参战方")
	}
	if record.WinnerMonsterID != "" && !record.IsParticipant(record.WinnerMonsterID) {
		return corrupt("胜者不是参战方")
	}
	return nil
}
