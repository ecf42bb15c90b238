package server

import (
	"github.com/palemoky/find-the-impostor/internal/network/protocol"
)

// GameError 游戏错误（房间和处理器共享）
type GameError struct {
	Code    int
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

// 预定义错误
var (
	ErrRoomNotFound     = &GameError{Code: protocol.ErrCodeRoomNotFound, Message: "房间不存在"}
	ErrRoomFull         = &GameError{Code: protocol.ErrCodeRoomFull, Message: "房间已满"}
	ErrNotInRoom        = &GameError{Code: protocol.ErrCodeNotInRoom, Message: "您不在房间中"}
	ErrGameStarted      = &GameError{Code: protocol.ErrCodeGameStarted, Message: "游戏已开始"}
	ErrNotEnoughPlayers = &GameError{Code: protocol.ErrCodeNotEnoughPlayers, Message: "至少需要 3 名玩家"}
	ErrNotHost          = &GameError{Code: protocol.ErrCodeNotHost, Message: "只有房主可以执行该操作"}
	ErrWrongPhase       = &GameError{Code: protocol.ErrCodeWrongPhase, Message: "当前阶段不允许该操作"}
	ErrNotYourTurn      = &GameError{Code: protocol.ErrCodeNotYourTurn, Message: "还没轮到您"}
	ErrAlreadyVoted     = &GameError{Code: protocol.ErrCodeAlreadyVoted, Message: "您已经投过票了"}
	ErrInvalidTarget    = &GameError{Code: protocol.ErrCodeInvalidTarget, Message: "投票目标无效"}
	ErrNotImpostor      = &GameError{Code: protocol.ErrCodeNotImpostor, Message: "您不是卧底"}
	ErrEliminated       = &GameError{Code: protocol.ErrCodeWrongPhase, Message: "您已被淘汰"}
	ErrEmptyHint        = &GameError{Code: protocol.ErrCodeInvalidMsg, Message: "提示词不能为空"}
)
