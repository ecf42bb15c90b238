package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// CreateRoomPayload 创建房间请求
type CreateRoomPayload struct {
	Name string `json:"name"` // 玩家昵称
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

// UpdateSettingsPayload 修改房间设置请求
type UpdateSettingsPayload struct {
	MaxRounds int `json:"maxRounds"` // 最大轮数，限制在 1-20
}

// SubmitHintPayload 提交提示词请求
type SubmitHintPayload struct {
	Hint string `json:"hint"`
}

// CastVotePayload 投票请求
type CastVotePayload struct {
	TargetID string `json:"targetId"` // 玩家 ID 或 "skip"
}

// ImpostorGuessPayload 卧底猜词请求
type ImpostorGuessPayload struct {
	Keyword string `json:"keyword"`
}

// GetLeaderboardPayload 获取排行榜请求
type GetLeaderboardPayload struct {
	Limit int `json:"limit"` // 数量，默认 10
}

// --- 服务端响应 Payloads ---

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// PlayerInfo 玩家信息（快照中的玩家条目）
type PlayerInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Avatar       string `json:"avatar"`
	Role         string `json:"role,omitempty"` // CIVILIAN/IMPOSTOR，大厅阶段为空
	IsHost       bool   `json:"isHost"`
	IsEliminated bool   `json:"isEliminated"`
	Hint         string `json:"hint,omitempty"`
	VoteCount    int    `json:"voteCount"`
	HasVoted     bool   `json:"hasVoted"`
	Score        int    `json:"score"`
}

// RoomStatePayload 房间状态快照，每次状态变更后广播给房间内所有连接
type RoomStatePayload struct {
	RoomID             string       `json:"roomId"`
	Phase              string       `json:"phase"`
	Players            []PlayerInfo `json:"players"` // 按加入顺序
	Topic              string       `json:"topic,omitempty"`
	Keyword            string       `json:"keyword,omitempty"`
	CurrentTurnID      string       `json:"currentTurnId,omitempty"` // 当前提示回合的玩家 ID
	CurrentRound       int          `json:"currentRound"`
	MaxRounds          int          `json:"maxRounds"`
	Winner             string       `json:"winner,omitempty"` // CIVILIANS/IMPOSTOR
	EliminatedPlayerID string       `json:"eliminatedPlayerId,omitempty"`
	LastGuess          string       `json:"lastGuess,omitempty"`
	SkipVotes          int          `json:"skipVotes"`
}

// LeaderboardResultPayload 排行榜结果
type LeaderboardResultPayload struct {
	Entries []LeaderboardEntry `json:"entries"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Score      int    `json:"score"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
