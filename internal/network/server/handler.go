package server

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/palemoky/find-the-impostor/internal/network/protocol"
)

// Handler 消息处理器：解析 payload、定位房间并分发到房间状态机。
// 所有被拒绝的操作只回给发起连接一条 error 消息，不影响房间状态。
type Handler struct {
	server *Server
}

// NewHandler 创建处理器
func NewHandler(s *Server) *Handler {
	return &Handler{server: s}
}

// Handle 处理消息
func (h *Handler) Handle(client *Client, msg *protocol.Message) {
	switch msg.Type {
	// 连接操作
	case protocol.MsgPing:
		h.handlePing(client, msg)

	// 房间操作
	case protocol.MsgCreateRoom:
		h.handleCreateRoom(client, msg)
	case protocol.MsgJoinRoom:
		h.handleJoinRoom(client, msg)
	case protocol.MsgUpdateSettings:
		h.handleUpdateSettings(client, msg)

	// 游戏操作
	case protocol.MsgStartGame:
		h.handleStartGame(client)
	case protocol.MsgSubmitHint:
		h.handleSubmitHint(client, msg)
	case protocol.MsgCastVote:
		h.handleCastVote(client, msg)
	case protocol.MsgImpostorGuess:
		h.handleImpostorGuess(client, msg)
	case protocol.MsgCancelGame:
		h.handleCancelGame(client)
	case protocol.MsgPlayAgain:
		h.handlePlayAgain(client)

	// 排行榜
	case protocol.MsgGetLeaderboard:
		h.handleGetLeaderboard(client, msg)

	default:
		log.Printf("未知消息类型: %s", msg.Type)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
	}
}

// sendError 将错误作为 error 消息回给发起连接
func (h *Handler) sendError(client *Client, err error) {
	if gameErr, ok := err.(*GameError); ok {
		client.SendMessage(protocol.NewErrorMessageWithText(gameErr.Code, gameErr.Message))
		return
	}
	client.SendMessage(protocol.NewErrorMessageWithText(protocol.ErrCodeUnknown, err.Error()))
}

// roomOf 定位客户端所在房间
func (h *Handler) roomOf(client *Client) *Room {
	code := client.GetRoom()
	if code == "" {
		return nil
	}
	return h.server.roomManager.GetRoom(code)
}

// handlePing 处理心跳消息
func (h *Handler) handlePing(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.PingPayload](msg)
	if err != nil {
		return
	}

	// 立即回复 pong
	client.SendMessage(protocol.MustNewMessage(protocol.MsgPong, protocol.PongPayload{
		ClientTimestamp: payload.Timestamp,
		ServerTimestamp: time.Now().UnixMilli(),
	}))
}

// handleCreateRoom 处理创建房间
func (h *Handler) handleCreateRoom(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CreateRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 如果已在房间中，先离开
	if client.GetRoom() != "" {
		h.server.roomManager.LeaveRoom(client)
	}

	// 创建者入座后 AddPlayer 已把快照发回给发起连接
	if _, err := h.server.roomManager.CreateRoom(client, payload.Name); err != nil {
		h.sendError(client, err)
	}
}

// handleJoinRoom 处理加入房间
func (h *Handler) handleJoinRoom(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.JoinRoomPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	// 如果已在房间中，先离开
	if client.GetRoom() != "" {
		h.server.roomManager.LeaveRoom(client)
	}

	code := strings.ToUpper(strings.TrimSpace(payload.RoomID))
	room := h.server.roomManager.GetRoom(code)
	if room == nil {
		h.sendError(client, ErrRoomNotFound)
		return
	}

	if err := room.AddPlayer(client, payload.Name); err != nil {
		h.sendError(client, err)
	}
}

// handleUpdateSettings 处理修改设置
func (h *Handler) handleUpdateSettings(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.UpdateSettingsPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room := h.roomOf(client)
	if room == nil {
		h.sendError(client, ErrNotInRoom)
		return
	}

	if err := room.UpdateSettings(client.ID, payload.MaxRounds); err != nil {
		h.sendError(client, err)
	}
}

// handleStartGame 处理开始游戏
func (h *Handler) handleStartGame(client *Client) {
	room := h.roomOf(client)
	if room == nil {
		h.sendError(client, ErrNotInRoom)
		return
	}

	if err := room.StartGame(client.ID); err != nil {
		h.sendError(client, err)
	}
}

// handleSubmitHint 处理提交提示词
func (h *Handler) handleSubmitHint(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.SubmitHintPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room := h.roomOf(client)
	if room == nil {
		h.sendError(client, ErrNotInRoom)
		return
	}

	if err := room.SubmitHint(client.ID, payload.Hint); err != nil {
		h.sendError(client, err)
	}
}

// handleCastVote 处理投票
func (h *Handler) handleCastVote(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.CastVotePayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room := h.roomOf(client)
	if room == nil {
		h.sendError(client, ErrNotInRoom)
		return
	}

	if err := room.CastVote(client.ID, payload.TargetID); err != nil {
		h.sendError(client, err)
	}
}

// handleImpostorGuess 处理卧底猜词
func (h *Handler) handleImpostorGuess(client *Client, msg *protocol.Message) {
	payload, err := protocol.ParsePayload[protocol.ImpostorGuessPayload](msg)
	if err != nil {
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
		return
	}

	room := h.roomOf(client)
	if room == nil {
		h.sendError(client, ErrNotInRoom)
		return
	}

	if err := room.ImpostorGuess(client.ID, payload.Keyword); err != nil {
		h.sendError(client, err)
	}
}

// handleCancelGame 处理中止对局
func (h *Handler) handleCancelGame(client *Client) {
	room := h.roomOf(client)
	if room == nil {
		h.sendError(client, ErrNotInRoom)
		return
	}

	if err := room.CancelGame(client.ID); err != nil {
		h.sendError(client, err)
	}
}

// handlePlayAgain 处理再来一局
func (h *Handler) handlePlayAgain(client *Client) {
	room := h.roomOf(client)
	if room == nil {
		h.sendError(client, ErrNotInRoom)
		return
	}

	if err := room.PlayAgain(client.ID); err != nil {
		h.sendError(client, err)
	}
}

// handleGetLeaderboard 处理获取排行榜
func (h *Handler) handleGetLeaderboard(client *Client, msg *protocol.Message) {
	limit := 10
	if len(msg.Payload) > 0 {
		payload, err := protocol.ParsePayload[protocol.GetLeaderboardPayload](msg)
		if err != nil {
			client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeInvalidMsg))
			return
		}
		if payload.Limit > 0 {
			limit = payload.Limit
		}
	}

	if h.server.store == nil {
		client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{}))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	entries, err := h.server.store.TopPlayers(ctx, limit)
	if err != nil {
		log.Printf("查询排行榜失败: %v", err)
		client.SendMessage(protocol.NewErrorMessage(protocol.ErrCodeUnknown))
		return
	}

	client.SendMessage(protocol.MustNewMessage(protocol.MsgLeaderboardResult, protocol.LeaderboardResultPayload{
		Entries: entries,
	}))
}
