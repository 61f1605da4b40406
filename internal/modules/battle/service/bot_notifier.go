package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"monstro-self/internal/pkg/log"
)

// BotNotifier 战斗结束后的机器人回调
// GET {base}/result-battle/{battleId}，Bearer 鉴权，即发即弃：失败只记日志
type BotNotifier struct {
	baseURL string
	token   string
	client  *http.Client
	logger  log.Logger
}

// NewBotNotifier 创建机器人回调客户端
func NewBotNotifier(baseURL, token string, logger log.Logger) *BotNotifier {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BotNotifier{
		baseURL: baseURL,
		token:   token,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
		logger: logger.With("component", "bot_notifier"),
	}
}

// NotifyBattleResult 通知机器人拉取战斗结果
func (n *BotNotifier) NotifyBattleResult(ctx context.Context, battleID string) {
	if n.baseURL == "" {
		return
	}

	url := fmt.Sprintf("%s/result-battle/%s", n.baseURL, battleID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		n.logger.WarnContext(ctx, "build bot notification request failed",
			log.String("battle_id", battleID),
			log.Any("error", err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.WarnContext(ctx, "bot notification failed",
			log.String("battle_id", battleID),
			log.Any("error", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		n.logger.WarnContext(ctx, "bot notification rejected",
			log.String("battle_id", battleID),
			log.Int("status_code", resp.StatusCode))
		return
	}

	n.logger.DebugContext(ctx, "bot notified",
		log.String("battle_id", battleID))
}
