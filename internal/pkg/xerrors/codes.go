// File: internal/pkg/xerrors/codes.go
package xerrors

import "fmt"

// ErrorCode 错误码类型（类型安全）
type ErrorCode int

// IsValid 检查错误码是否在预定义列表中
func (c ErrorCode) IsValid() bool {
	_, exists := codeMessages[c]
	return exists
}

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return fmt.Sprintf("%d (%s)", c, msg)
	}
	return fmt.Sprintf("%d (未定义的错误码)", c)
}

// Message 返回错误码对应的消息
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "未知错误"
}

// ToInt 转换为 int（用于 JSON 序列化等场景）
func (c ErrorCode) ToInt() int {
	return int(c)
}

// -----------------------------------------------------------------------------
// 业务错误码统一定义
// 按模块或领域对错误码进行分段，便于管理。
// -----------------------------------------------------------------------------
const (
	// 1xxxxx: 通用错误码
	CodeSuccess           ErrorCode = 100000 // 操作成功
	CodeInternalError     ErrorCode = 100001 // 内部服务错误
	CodeInvalidParams     ErrorCode = 100002 // 参数错误
	CodeInvalidRequest    ErrorCode = 100003 // 请求格式错误
	CodeResourceNotFound  ErrorCode = 100404 // 资源不存在
	CodeDuplicateResource ErrorCode = 100409 // 资源已存在
	CodeRateLimitExceeded ErrorCode = 100429 // 请求频率限制

	// 4xxxxx: 用户管理错误码
	CodeUserNotFound      ErrorCode = 400001 // 用户不存在
	CodeInvalidUserStatus ErrorCode = 400006 // 用户状态无效

	// 6xxxxx: 业务逻辑错误码
	CodeBusinessLogicError  ErrorCode = 600001 // 业务逻辑错误
	CodeDataIntegrityError  ErrorCode = 600002 // 数据完整性错误
	CodeOperationNotAllowed ErrorCode = 600003 // 操作不被允许
	CodeResourceLocked      ErrorCode = 600004 // 资源被锁定

	// 7xxxxx: 外部服务错误码
	CodeExternalServiceError ErrorCode = 700001 // 外部服务错误
	CodeDatabaseError        ErrorCode = 700003 // 数据库错误
	CodeCacheError           ErrorCode = 700004 // 缓存服务错误
	CodeMessageQueueError    ErrorCode = 700005 // 消息队列错误

	// 9xxxxx: 战斗业务错误码
	// 战斗记录相关 (90xxxx)
	CodeBattleNotFound      ErrorCode = 900001 // 战斗不存在或已过期
	CodeBattleFinished      ErrorCode = 900002 // 战斗已结束
	CodeBattleNotYourTurn   ErrorCode = 900003 // 当前不是该怪兽的回合
	CodeBattleBusy          ErrorCode = 900004 // 战斗记录正在被其他请求修改
	CodeBattleRecordCorrupt ErrorCode = 900005 // 战斗记录数据损坏
	CodeBattleInvalidStatus ErrorCode = 900006 // 战斗状态不允许该操作

	// 怪兽资源相关 (91xxxx)
	CodeMonsterNotFound        ErrorCode = 910001 // 怪兽不存在
	CodeInsufficientSatiety    ErrorCode = 910002 // 饱食度不足
	CodeInsufficientEnergy     ErrorCode = 910003 // 精力不足
	CodeInsufficientStamina    ErrorCode = 910004 // 耐力不足
	CodeMonsterNotOwnedByUser  ErrorCode = 910005 // 怪兽不属于该用户
	CodeMonsterAlreadyInBattle ErrorCode = 910006 // 怪兽已在战斗中

	// 技能相关 (92xxxx)
	CodeSkillNotFound   ErrorCode = 920001 // 技能不存在
	CodeSkillNotLearned ErrorCode = 920002 // 技能未学习
)

// -----------------------------------------------------------------------------
// HTTP 状态码常量定义
// -----------------------------------------------------------------------------
const (
	HTTPStatusOK        = 200 // 请求成功
	HTTPStatusCreated   = 201 // 资源已创建
	HTTPStatusNoContent = 204 // 请求成功但无内容返回

	HTTPStatusBadRequest      = 400 // 错误请求
	HTTPStatusUnauthorized    = 401 // 未经授权
	HTTPStatusForbidden       = 403 // 禁止访问
	HTTPStatusNotFound        = 404 // 资源未找到
	HTTPStatusConflict        = 409 // 资源冲突
	HTTPStatusTooManyRequests = 429 // 请求过多

	HTTPStatusInternalServerError = 500 // 内部服务器错误
	HTTPStatusServiceUnavailable  = 503 // 服务不可用
)

// -----------------------------------------------------------------------------
// 错误消息映射
// -----------------------------------------------------------------------------
var codeMessages = map[ErrorCode]string{
	CodeSuccess:           "操作成功",
	CodeInternalError:     "内部服务错误",
	CodeInvalidParams:     "参数错误",
	CodeInvalidRequest:    "请求格式错误",
	CodeResourceNotFound:  "资源不存在",
	CodeDuplicateResource: "资源已存在",
	CodeRateLimitExceeded: "请求频率限制",

	CodeUserNotFound:      "用户不存在",
	CodeInvalidUserStatus: "用户状态无效",

	CodeBusinessLogicError:  "业务逻辑错误",
	CodeDataIntegrityError:  "数据完整性错误",
	CodeOperationNotAllowed: "操作不被允许",
	CodeResourceLocked:      "资源被锁定",

	CodeExternalServiceError: "外部服务错误",
	CodeDatabaseError:        "数据库错误",
	CodeCacheError:           "缓存服务错误",
	CodeMessageQueueError:    "消息队列错误",

	// 战斗业务错误消息
	CodeBattleNotFound:      "战斗不存在或已过期",
	CodeBattleFinished:      "战斗已结束",
	CodeBattleNotYourTurn:   "当前不是该怪兽的回合",
	CodeBattleBusy:          "战斗记录正在被其他请求修改",
	CodeBattleRecordCorrupt: "战斗记录数据损坏",
	CodeBattleInvalidStatus: "战斗状态不允许该操作",

	CodeMonsterNotFound:        "怪兽不存在",
	CodeInsufficientSatiety:    "饱食度不足",
	CodeInsufficientEnergy:     "精力不足",
	CodeInsufficientStamina:    "耐力不足",
	CodeMonsterNotOwnedByUser:  "怪兽不属于该用户",
	CodeMonsterAlreadyInBattle: "怪兽已在战斗中",

	CodeSkillNotFound:   "技能不存在",
	CodeSkillNotLearned: "技能未学习",
}

// GetHTTPStatus 根据业务错误码获取HTTP状态码
func GetHTTPStatus(code ErrorCode) int {
	switch {
	case code == CodeSuccess:
		return HTTPStatusOK
	case code == CodeResourceNotFound || code == CodeBattleNotFound ||
		code == CodeMonsterNotFound || code == CodeSkillNotFound ||
		code == CodeUserNotFound:
		return HTTPStatusNotFound
	case code == CodeDuplicateResource:
		return HTTPStatusConflict
	case code == CodeBattleBusy || code == CodeResourceLocked:
		return HTTPStatusConflict
	case code == CodeInvalidParams || code == CodeInvalidRequest:
		return HTTPStatusBadRequest
	case code == CodeRateLimitExceeded:
		return HTTPStatusTooManyRequests
	case code == CodeMonsterNotOwnedByUser:
		return HTTPStatusForbidden
	case code >= 600000 && code < 700000:
		return HTTPStatusBadRequest
	case code >= 700000 && code < 800000:
		return HTTPStatusServiceUnavailable
	case code >= 900000:
		return HTTPStatusBadRequest
	default:
		return HTTPStatusInternalServerError
	}
}

// 辅助函数
// getCategoryByCode 根据错误码获取分类
func getCategoryByCode(code ErrorCode) string {
	switch {
	case code >= 100000 && code < 200000:
		return "system"
	case code >= 400000 && code < 500000:
		return "user"
	case code >= 600000 && code < 700000:
		return "business"
	case code >= 700000 && code < 800000:
		return "external"
	case code >= 900000 && code < 1000000:
		return "battle"
	default:
		return "unknown"
	}
}

// getLevelByCode 根据错误码获取级别
func getLevelByCode(code ErrorCode) ErrorLevel {
	switch {
	case code == CodeSuccess:
		return LevelInfo
	case code >= 900001 && code <= 900006: // 战斗路径的拒绝信号，不算服务端故障
		return LevelWarn
	case code >= 910001 && code < 930000:
		return LevelWarn
	case code >= 100001 && code <= 100003: // 参数错误等
		return LevelWarn
	case code >= 700001 && code < 800000: // 外部服务错误
		return LevelCritical
	default:
		return LevelError
	}
}

// isRetryableByCode 根据错误码判断是否可重试
func isRetryableByCode(code ErrorCode) bool {
	retryableCodes := map[ErrorCode]bool{
		CodeInternalError:        true,
		CodeExternalServiceError: true,
		CodeDatabaseError:        true,
		CodeCacheError:           true,
		CodeMessageQueueError:    true,
		CodeRateLimitExceeded:    true,
		CodeBattleBusy:           true, // 锁冲突，客户端可稍后重试
	}
	return retryableCodes[code]
}
