package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom     MessageType = "create_room"     // 创建房间
	MsgJoinRoom       MessageType = "join_room"       // 加入房间
	MsgUpdateSettings MessageType = "update_settings" // 房主修改设置

	// 游戏操作
	MsgStartGame     MessageType = "start_game"     // 房主开始游戏
	MsgSubmitHint    MessageType = "submit_hint"    // 提交提示词
	MsgCastVote      MessageType = "cast_vote"      // 投票
	MsgImpostorGuess MessageType = "impostor_guess" // 卧底猜关键词
	MsgCancelGame    MessageType = "cancel_game"    // 房主中止游戏
	MsgPlayAgain     MessageType = "play_again"     // 再来一局

	// 排行榜
	MsgGetLeaderboard MessageType = "get_leaderboard" // 获取排行榜
)

// 服务端 → 客户端 消息类型
const (
	MsgPong              MessageType = "pong"               // 心跳 pong
	MsgRoomState         MessageType = "room_state"         // 房间状态快照
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果
	MsgError             MessageType = "error"              // 错误消息
)

// VoteSkip 弃权投票的哨兵目标
const VoteSkip = "skip"
