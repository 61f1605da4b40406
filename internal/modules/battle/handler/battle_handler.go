package handler

import (
	"github.com/labstack/echo/v4"

	"monstro-self/internal/modules/battle/service"
	"monstro-self/internal/pkg/response"
)

// BattleHandler 战斗生命周期的 HTTP 入口
type BattleHandler struct {
	battleService *service.BattleService
	respWriter    response.Writer
}

// NewBattleHandler 创建战斗 Handler
func NewBattleHandler(battleService *service.BattleService, respWriter response.Writer) *BattleHandler {
	return &BattleHandler{
		battleService: battleService,
		respWriter:    respWriter,
	}
}

// ==================== HTTP Request/Response Models ====================

// ChallengeRequest 发起挑战请求
type ChallengeRequest struct {
	ChallengerMonsterID string `json:"challenger_monster_id" validate:"required,uuid"`
	OpponentMonsterID   string `json:"opponent_monster_id" validate:"required,uuid"`
	ChatID              string `json:"chat_id,omitempty"`
}

// ParticipantRequest 参战方标识（接受/拒绝/就绪共用）
type ParticipantRequest struct {
	MonsterID string `json:"monster_id" validate:"required,uuid"`
}

// RegisterSocketRequest 登记实时连接请求
type RegisterSocketRequest struct {
	MonsterID string `json:"monster_id" validate:"required,uuid"`
	SocketID  string `json:"socket_id" validate:"required"`
}

// ActionRequest 回合动作提交
// attack/defense 皆可为空：双空视为弃权
type ActionRequest struct {
	MonsterID string `json:"monster_id" validate:"required,uuid"`
	AttackID  string `json:"attack_id,omitempty"`
	DefenseID string `json:"defense_id,omitempty"`
}

// ChallengeResponse 挑战创建结果
type ChallengeResponse struct {
	BattleID            string `json:"battle_id"`
	ChallengerMonsterID string `json:"challenger_monster_id"`
	OpponentMonsterID   string `json:"opponent_monster_id"`
	Status              string `json:"status"`
}

// SideState 单方战斗状态
type SideState struct {
	MonsterID string `json:"monster_id"`
	HP        int    `json:"hp"`
	MaxHP     int    `json:"max_hp"`
	Stamina   int    `json:"stamina"`
	Ready     bool   `json:"ready"`
}

// BattleResponse 战斗状态响应
type BattleResponse struct {
	BattleID             string                   `json:"battle_id"`
	Challenger           SideState                `json:"challenger"`
	Opponent             SideState                `json:"opponent"`
	CurrentTurnMonsterID string                   `json:"current_turn_monster_id"`
	TurnNumber           int                      `json:"turn_number"`
	TurnEndsAtMs         int64                    `json:"turn_ends_at_ms"`
	ActiveDefense        *service.ActiveDefense   `json:"active_defense,omitempty"`
	LastActionLog        *service.BattleLogEntry  `json:"last_action_log,omitempty"`
	Logs                 []service.BattleLogEntry `json:"logs"`
	WinnerMonsterID      string                   `json:"winner_monster_id,omitempty"`
	ChallengerReward     *service.RewardSummary   `json:"challenger_reward,omitempty"`
	OpponentReward       *service.RewardSummary   `json:"opponent_reward,omitempty"`
}

// ActionResponse 回合动作结果
type ActionResponse struct {
	ActionKind string         `json:"action_kind"`
	Damage     int            `json:"damage"`
	Evaded     bool           `json:"evaded"`
	Battle     BattleResponse `json:"battle"`
}

func toBattleResponse(record *service.BattleRecord) BattleResponse {
	return BattleResponse{
		BattleID: record.BattleID,
		Challenger: SideState{
			MonsterID: record.ChallengerMonsterID,
			HP:        record.ChallengerHP,
			MaxHP:     record.ChallengerMaxHP,
			Stamina:   record.ChallengerStamina,
			Ready:     record.ChallengerReady,
		},
		Opponent: SideState{
			MonsterID: record.OpponentMonsterID,
			HP:        record.OpponentHP,
			MaxHP:     record.OpponentMaxHP,
			Stamina:   record.OpponentStamina,
			Ready:     record.OpponentReady,
		},
		CurrentTurnMonsterID: record.CurrentTurnMonsterID,
		TurnNumber:           record.TurnNumber,
		TurnEndsAtMs:         record.TurnEndsAtMs,
		ActiveDefense:        record.ActiveDefense,
		LastActionLog:        record.LastActionLog,
		Logs:                 record.Logs,
		WinnerMonsterID:      record.WinnerMonsterID,
		ChallengerReward:     record.ChallengerReward,
		OpponentReward:       record.OpponentReward,
	}
}

// ==================== HTTP Handlers ====================

// Challenge 发起挑战
func (h *BattleHandler) Challenge(c echo.Context) error {
	var req ChallengeRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	battle, err := h.battleService.Challenge(c.Request().Context(), req.ChallengerMonsterID, req.OpponentMonsterID, req.ChatID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, ChallengeResponse{
		BattleID:            battle.ID,
		ChallengerMonsterID: battle.ChallengerMonsterID,
		OpponentMonsterID:   battle.OpponentMonsterID,
		Status:              battle.Status,
	})
}

// Accept 接受挑战
func (h *BattleHandler) Accept(c echo.Context) error {
	var req ParticipantRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	record, err := h.battleService.Accept(c.Request().Context(), c.Param("battle_id"), req.MonsterID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, toBattleResponse(record))
}

// Reject 拒绝挑战
func (h *BattleHandler) Reject(c echo.Context) error {
	var req ParticipantRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	if err := h.battleService.Reject(c.Request().Context(), c.Param("battle_id"), req.MonsterID); err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, map[string]any{"message": "挑战已拒绝"})
}

// GetBattle 查询战斗状态
// monster_id 走查询参数：只有参战方能看到自己的战斗
func (h *BattleHandler) GetBattle(c echo.Context) error {
	monsterID := c.QueryParam("monster_id")
	if monsterID == "" {
		return response.EchoBadRequest(c, h.respWriter, "monster_id 不能为空")
	}

	record, err := h.battleService.GetBattle(c.Request().Context(), c.Param("battle_id"), monsterID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, toBattleResponse(record))
}

// PerformAction 提交回合动作
func (h *BattleHandler) PerformAction(c echo.Context) error {
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	record, outcome, err := h.battleService.PerformAction(c.Request().Context(), service.ActionInput{
		BattleID:  c.Param("battle_id"),
		MonsterID: req.MonsterID,
		AttackID:  req.AttackID,
		DefenseID: req.DefenseID,
	})
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}

	return response.EchoOK(c, h.respWriter, ActionResponse{
		ActionKind: outcome.ActionKind,
		Damage:     outcome.Damage,
		Evaded:     outcome.Evaded,
		Battle:     toBattleResponse(record),
	})
}

// SetReady 标记就绪
func (h *BattleHandler) SetReady(c echo.Context) error {
	var req ParticipantRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	record, err := h.battleService.SetReady(c.Request().Context(), c.Param("battle_id"), req.MonsterID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, toBattleResponse(record))
}

// RegisterSocket 登记实时连接
func (h *BattleHandler) RegisterSocket(c echo.Context) error {
	var req RegisterSocketRequest
	if err := c.Bind(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, "请求格式错误")
	}
	if err := c.Validate(&req); err != nil {
		return response.EchoBadRequest(c, h.respWriter, err.Error())
	}

	record, err := h.battleService.RegisterSocket(c.Request().Context(), c.Param("battle_id"), req.MonsterID, req.SocketID)
	if err != nil {
		return response.EchoError(c, h.respWriter, err)
	}
	return response.EchoOK(c, h.respWriter, toBattleResponse(record))
}
