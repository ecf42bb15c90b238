package protocol

// 错误码
const (
	ErrCodeUnknown          = 1000
	ErrCodeInvalidMsg       = 1001 // 消息格式错误
	ErrCodeRateLimit        = 1002 // 速率限制
	ErrCodeRoomNotFound     = 2001
	ErrCodeRoomFull         = 2002
	ErrCodeNotInRoom        = 2003
	ErrCodeGameStarted      = 2004 // 游戏已开始
	ErrCodeNotEnoughPlayers = 2005 // 人数不足
	ErrCodeNotHost          = 2006 // 不是房主
	ErrCodeWrongPhase       = 3001 // 当前阶段不允许该操作
	ErrCodeNotYourTurn      = 3002
	ErrCodeAlreadyVoted     = 3003
	ErrCodeInvalidTarget    = 3004 // 投票目标无效
	ErrCodeNotImpostor      = 3005 // 不是卧底
)

// ErrorMessages 错误码对应的消息
var ErrorMessages = map[int]string{
	ErrCodeUnknown:          "未知错误",
	ErrCodeInvalidMsg:       "无效的消息格式",
	ErrCodeRateLimit:        "请求过于频繁",
	ErrCodeRoomNotFound:     "房间不存在",
	ErrCodeRoomFull:         "房间已满",
	ErrCodeNotInRoom:        "您不在房间中",
	ErrCodeGameStarted:      "游戏已开始",
	ErrCodeNotEnoughPlayers: "至少需要 3 名玩家",
	ErrCodeNotHost:          "只有房主可以执行该操作",
	ErrCodeWrongPhase:       "当前阶段不允许该操作",
	ErrCodeNotYourTurn:      "还没轮到您",
	ErrCodeAlreadyVoted:     "您已经投过票了",
	ErrCodeInvalidTarget:    "投票目标无效",
	ErrCodeNotImpostor:      "您不是卧底",
}
