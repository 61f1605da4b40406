package handler

import (
	"context"
	"encoding/json"

	"monstro-self/internal/modules/battle/service"
	"monstro-self/internal/pkg/xerrors"
)

// BattleRPCHandler 战斗 RPC 处理器
// 供 socket 网关通过 mqant RPC 调用，JSON 负载
type BattleRPCHandler struct {
	battleService *service.BattleService
}

// NewBattleRPCHandler 创建战斗 RPC Handler
func NewBattleRPCHandler(battleService *service.BattleService) *BattleRPCHandler {
	return &BattleRPCHandler{battleService: battleService}
}

type rpcActionRequest struct {
	BattleID  string `json:"battle_id"`
	MonsterID string `json:"monster_id"`
	AttackID  string `json:"attack_id,omitempty"`
	DefenseID string `json:"defense_id,omitempty"`
}

type rpcGetBattleRequest struct {
	BattleID  string `json:"battle_id"`
	MonsterID string `json:"monster_id"`
}

type rpcActionResponse struct {
	ActionKind string                 `json:"action_kind"`
	Damage     int                    `json:"damage"`
	Evaded     bool                   `json:"evaded"`
	Battle     *service.BattleRecord  `json:"battle"`
	Rejected   bool                   `json:"rejected,omitempty"`
	Reason     map[string]interface{} `json:"reason,omitempty"`
}

// rejectionPayload 把游戏性拒绝转成网关可直接透传的负载
// 拒绝不是错误：RPC 层返回正常响应，error 只留给真正的系统故障
func rejectionPayload(appErr *xerrors.AppError) []byte {
	data, _ := json.Marshal(rpcActionResponse{
		Rejected: true,
		Reason: map[string]interface{}{
			"code":      int(appErr.Code),
			"message":   appErr.Message,
			"retryable": appErr.IsRetryable(),
		},
	})
	return data
}

// PerformAction 提交回合动作（RPC）
func (h *BattleRPCHandler) PerformAction(data []byte) ([]byte, error) {
	var req rpcActionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, xerrors.NewInvalidArgumentError("request", "invalid json payload")
	}
	if req.BattleID == "" || req.MonsterID == "" {
		return nil, xerrors.NewInvalidArgumentError("request", "battle_id and monster_id are required")
	}

	record, outcome, err := h.battleService.PerformAction(context.Background(), service.ActionInput{
		BattleID:  req.BattleID,
		MonsterID: req.MonsterID,
		AttackID:  req.AttackID,
		DefenseID: req.DefenseID,
	})
	if err != nil {
		if appErr, ok := xerrors.AsAppError(err); ok && appErr.IsRejection() {
			return rejectionPayload(appErr), nil
		}
		return nil, err
	}

	return json.Marshal(rpcActionResponse{
		ActionKind: outcome.ActionKind,
		Damage:     outcome.Damage,
		Evaded:     outcome.Evaded,
		Battle:     record,
	})
}

// GetBattle 查询战斗状态（RPC）
func (h *BattleRPCHandler) GetBattle(data []byte) ([]byte, error) {
	var req rpcGetBattleRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, xerrors.NewInvalidArgumentError("request", "invalid json payload")
	}
	if req.BattleID == "" || req.MonsterID == "" {
		return nil, xerrors.NewInvalidArgumentError("request", "battle_id and monster_id are required")
	}

	record, err := h.battleService.GetBattle(context.Background(), req.BattleID, req.MonsterID)
	if err != nil {
		if appErr, ok := xerrors.AsAppError(err); ok && appErr.IsRejection() {
			return rejectionPayload(appErr), nil
		}
		return nil, err
	}
	return json.Marshal(record)
}
