package server

import (
	"context"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/palemoky/find-the-impostor/internal/network/protocol"
	"github.com/palemoky/find-the-impostor/internal/topic"
)

// Phase 游戏阶段
type Phase string

const (
	PhaseLobby         Phase = "LOBBY"          // 大厅等待
	PhaseRoleReveal    Phase = "ROLE_REVEAL"    // 身份展示
	PhaseHinting       Phase = "HINTING"        // 轮流提示
	PhaseVoting        Phase = "VOTING"         // 投票
	PhaseImpostorGuess Phase = "IMPOSTOR_GUESS" // 卧底猜词
	PhaseResult        Phase = "RESULT"         // 结算
)

// Role 玩家身份
type Role string

const (
	RoleNone     Role = ""
	RoleCivilian Role = "CIVILIAN"
	RoleImpostor Role = "IMPOSTOR"
)

// Winner 获胜方
type Winner string

const (
	WinnerNone      Winner = ""
	WinnerCivilians Winner = "CIVILIANS"
	WinnerImpostor  Winner = "IMPOSTOR"
)

const (
	maxPlayersPerRoom = 10
	minPlayersToStart = 3
	minRounds         = 1
	maxRoundsLimit    = 20

	// 胜负积分
	impostorWinPoints = 3
	civilianWinPoints = 1

	defaultPlayerName = "Người chơi"
)

// Player 房间中的玩家
type Player struct {
	ID           string
	Name         string
	Avatar       string
	Role         Role
	IsHost       bool
	IsEliminated bool
	Hint         string
	VoteCount    int
	HasVoted     bool
	Score        int // 跨局累计，仅房间销毁时清零

	client *Client // 测试中可为 nil
}

// Room 游戏房间：单个房间状态的唯一权威。
// 所有修改都在 mu 保护下执行，房间之间互不阻塞。
type Room struct {
	Code               string
	Phase              Phase
	Players            []*Player // 按加入顺序
	Topic              string
	Keyword            string
	CurrentTurnID      string // 当前提示回合的玩家 ID
	CurrentRound       int
	MaxRounds          int
	Winner             Winner
	EliminatedPlayerID string
	LastGuess          string
	SkipVotes          int
	CreatedAt          time.Time

	usedKeywords []string // 本房间已出过的关键词
	timerGen     int      // 定时器代数，作废被取消对局的 ROLE_REVEAL 定时器
	revealDelay  time.Duration
	topics       topic.Provider
	server       *Server
	mu           sync.Mutex
}

// newRoom 创建房间
func newRoom(code string, srv *Server, topics topic.Provider, revealDelay time.Duration, maxRounds int) *Room {
	return &Room{
		Code:        code,
		Phase:       PhaseLobby,
		Players:     make([]*Player, 0, maxPlayersPerRoom),
		MaxRounds:   maxRounds,
		CreatedAt:   time.Now(),
		revealDelay: revealDelay,
		topics:      topics,
		server:      srv,
	}
}

// AddPlayer 加入房间。第一个加入的玩家成为房主。
func (r *Room) AddPlayer(client *Client, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseLobby {
		return ErrGameStarted
	}
	if len(r.Players) >= maxPlayersPerRoom {
		return ErrRoomFull
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultPlayerName
	}

	id := uuid.New().String()
	if client != nil {
		id = client.ID
	}

	player := &Player{
		ID:     id,
		Name:   name,
		Avatar: GenerateAvatar(),
		IsHost: len(r.Players) == 0,
		client: client,
	}
	r.Players = append(r.Players, player)

	if client != nil {
		client.Name = name
		client.SetRoom(r.Code)
	}

	log.Printf("👤 玩家 %s 加入房间 %s (%d/%d)", name, r.Code, len(r.Players), maxPlayersPerRoom)

	r.broadcastLocked()
	return nil
}

// UpdateSettings 房主修改最大轮数，范围钳制在 1-20。
func (r *Room) UpdateSettings(playerID string, maxRounds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil {
		return ErrNotInRoom
	}
	if !player.IsHost {
		return ErrNotHost
	}
	if r.Phase != PhaseLobby {
		return ErrWrongPhase
	}

	if maxRounds < minRounds {
		maxRounds = minRounds
	}
	if maxRounds > maxRoundsLimit {
		maxRounds = maxRoundsLimit
	}
	r.MaxRounds = maxRounds

	r.broadcastLocked()
	return nil
}

// StartGame 房主开始游戏：抽题、随机指定一名卧底、进入身份展示阶段。
func (r *Room) StartGame(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil {
		return ErrNotInRoom
	}
	if !player.IsHost {
		return ErrNotHost
	}
	if r.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	if len(r.Players) < minPlayersToStart {
		return ErrNotEnoughPlayers
	}

	topicName, keyword := r.topics.Pick(r.usedKeywords)
	r.Topic = topicName
	r.Keyword = keyword
	r.usedKeywords = append(r.usedKeywords, keyword)

	r.Phase = PhaseRoleReveal
	r.CurrentRound = 1
	r.Winner = WinnerNone
	r.EliminatedPlayerID = ""
	r.LastGuess = ""
	r.SkipVotes = 0
	r.CurrentTurnID = r.Players[rand.Intn(len(r.Players))].ID

	// 随机指定一名卧底，其余为平民
	impostorIdx := rand.Intn(len(r.Players))
	for i, p := range r.Players {
		if i == impostorIdx {
			p.Role = RoleImpostor
		} else {
			p.Role = RoleCivilian
		}
		p.IsEliminated = false
		p.Hint = ""
		p.VoteCount = 0
		p.HasVoted = false
	}

	// 身份展示定时器携带当前代数，对局被取消或重开后旧定时器作废
	r.timerGen++
	gen := r.timerGen
	time.AfterFunc(r.revealDelay, func() {
		r.finishRoleReveal(gen)
	})

	log.Printf("🎭 房间 %s 开始游戏：主题=%s，%d 名玩家", r.Code, topicName, len(r.Players))

	r.broadcastLocked()
	return nil
}

// finishRoleReveal 身份展示结束，进入提示阶段。
// 只有代数和阶段都未变时才生效。
func (r *Room) finishRoleReveal(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.timerGen || r.Phase != PhaseRoleReveal {
		return
	}

	r.Phase = PhaseHinting
	r.broadcastLocked()
}

// SubmitHint 当前回合玩家提交提示词。
// 所有存活玩家都已提示时进入投票阶段，否则轮到下一名存活玩家。
func (r *Room) SubmitHint(playerID, hint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseHinting {
		return ErrWrongPhase
	}

	player := r.findPlayer(playerID)
	if player == nil {
		return ErrNotInRoom
	}
	if player.IsEliminated || player.ID != r.CurrentTurnID {
		return ErrNotYourTurn
	}
	if strings.TrimSpace(hint) == "" {
		return ErrEmptyHint
	}

	player.Hint = hint

	if r.allActiveHinted() {
		r.Phase = PhaseVoting
	} else {
		r.CurrentTurnID = r.nextActiveAfter(playerID)
	}

	r.broadcastLocked()
	return nil
}

// CastVote 投票。目标为玩家 ID 或 "skip"（弃权）。
// 所有存活玩家投票完毕后结算本轮。
func (r *Room) CastVote(playerID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseVoting {
		return ErrWrongPhase
	}

	voter := r.findPlayer(playerID)
	if voter == nil {
		return ErrNotInRoom
	}
	if voter.IsEliminated {
		return ErrEliminated
	}
	if voter.HasVoted {
		return ErrAlreadyVoted
	}

	if targetID == protocol.VoteSkip {
		voter.HasVoted = true
		r.SkipVotes++
	} else {
		target := r.findPlayer(targetID)
		if target == nil || target.IsEliminated {
			return ErrInvalidTarget
		}
		voter.HasVoted = true
		target.VoteCount++
	}

	if r.allActiveVoted() {
		r.resolveVotesLocked()
	}

	r.broadcastLocked()
	return nil
}

// resolveVotesLocked 本轮投票结算。
// 弃权票达到存活人数一半且未到最大轮数时不淘汰任何人，开始新一轮提示；
// 否则淘汰得票最高者（平票取加入顺序靠前者）。
func (r *Room) resolveVotesLocked() {
	active := r.activeCount()

	if 2*r.SkipVotes >= active && r.CurrentRound < r.MaxRounds {
		r.startNextRoundLocked()
		return
	}

	var target *Player
	for _, p := range r.Players {
		if p.IsEliminated {
			continue
		}
		if target == nil || p.VoteCount > target.VoteCount {
			target = p
		}
	}

	if target == nil || target.VoteCount == 0 {
		// 无人得票：轮数用尽则卧底获胜，否则视同弃权进入新一轮
		if r.CurrentRound >= r.MaxRounds {
			r.clearVoteStateLocked()
			r.finishGameLocked(WinnerImpostor)
			return
		}
		r.startNextRoundLocked()
		return
	}

	target.IsEliminated = true
	r.EliminatedPlayerID = target.ID
	r.clearVoteStateLocked()

	log.Printf("🗳️ 房间 %s 第 %d 轮投票淘汰了 %s", r.Code, r.CurrentRound, target.Name)

	if target.Role == RoleImpostor {
		// 卧底被抓，还有最后一次猜词机会
		r.Phase = PhaseImpostorGuess
		return
	}

	// 平民被误淘汰，一次误杀即告负
	if r.impostorAlive() {
		r.finishGameLocked(WinnerImpostor)
	} else {
		r.finishGameLocked(WinnerCivilians)
	}
}

// ImpostorGuess 被淘汰的卧底猜关键词，忽略首尾空白和大小写。
func (r *Room) ImpostorGuess(playerID, guess string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Phase != PhaseImpostorGuess {
		return ErrWrongPhase
	}

	player := r.findPlayer(playerID)
	if player == nil {
		return ErrNotInRoom
	}
	if player.Role != RoleImpostor {
		return ErrNotImpostor
	}

	r.LastGuess = guess
	if strings.EqualFold(strings.TrimSpace(guess), strings.TrimSpace(r.Keyword)) {
		r.finishGameLocked(WinnerImpostor)
	} else {
		r.finishGameLocked(WinnerCivilians)
	}

	r.broadcastLocked()
	return nil
}

// CancelGame 房主中止当前对局，回到大厅，保留玩家和积分。
func (r *Room) CancelGame(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	player := r.findPlayer(playerID)
	if player == nil {
		return ErrNotInRoom
	}
	if !player.IsHost {
		return ErrNotHost
	}
	if r.Phase == PhaseLobby {
		return ErrWrongPhase
	}

	r.resetToLobbyLocked()
	log.Printf("🛑 房间 %s 的对局被房主中止", r.Code)

	r.broadcastLocked()
	return nil
}

// PlayAgain 结算后回到大厅再来一局。任何玩家都可以发起。
func (r *Room) PlayAgain(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findPlayer(playerID) == nil {
		return ErrNotInRoom
	}

	r.resetToLobbyLocked()
	r.broadcastLocked()
	return nil
}

// RemovePlayer 移除玩家（断线）。返回房间是否已空。
// 房主离开时转移给加入顺序最靠前的玩家；
// 对局中卧底离开则平民直接获胜；
// 当前提示回合玩家离开则回合自动顺延；
// 投票阶段离开后重新检查是否所有人已投票，避免卡轮。
func (r *Room) RemovePlayer(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.Players {
		if p.ID == playerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return len(r.Players) == 0
	}

	leaver := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	log.Printf("👋 玩家 %s 离开房间 %s", leaver.Name, r.Code)

	if len(r.Players) == 0 {
		r.timerGen++ // 作废未触发的定时器
		return true
	}

	if leaver.IsHost {
		r.Players[0].IsHost = true
	}

	inGame := r.Phase != PhaseLobby && r.Phase != PhaseResult
	switch {
	case inGame && leaver.Role == RoleImpostor:
		// 卧底逃跑，平民获胜
		r.clearVoteStateLocked()
		r.finishGameLocked(WinnerCivilians)

	case inGame && r.Phase == PhaseHinting:
		if r.CurrentTurnID == leaver.ID {
			r.CurrentTurnID = r.nextActiveFromIndex(idx)
		}
		if r.allActiveHinted() {
			r.Phase = PhaseVoting
		}

	case inGame && r.Phase == PhaseVoting:
		if r.allActiveVoted() {
			r.resolveVotesLocked()
		}
	}

	r.broadcastLocked()
	return false
}

// Snapshot 返回当前房间状态快照
func (r *Room) Snapshot() protocol.RoomStatePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// --- 内部辅助，调用方必须已持有 r.mu ---

// startNextRoundLocked 开始新一轮提示：清空提示和投票状态，
// 从加入顺序最靠前的存活玩家开始。
func (r *Room) startNextRoundLocked() {
	r.CurrentRound++
	r.clearVoteStateLocked()
	for _, p := range r.Players {
		p.Hint = ""
	}
	r.CurrentTurnID = r.firstActiveID()
	r.Phase = PhaseHinting
}

// clearVoteStateLocked 清空本轮投票状态
func (r *Room) clearVoteStateLocked() {
	r.SkipVotes = 0
	for _, p := range r.Players {
		p.VoteCount = 0
		p.HasVoted = false
	}
}

// finishGameLocked 结算：设置胜方并计分。
// 卧底获胜 +3，平民获胜则每名存活平民 +1。
func (r *Room) finishGameLocked(winner Winner) {
	r.Phase = PhaseResult
	r.Winner = winner

	type scored struct {
		id, name string
		points   int
	}
	var results []scored

	if winner == WinnerImpostor {
		for _, p := range r.Players {
			if p.Role == RoleImpostor {
				p.Score += impostorWinPoints
				results = append(results, scored{p.ID, p.Name, impostorWinPoints})
			}
		}
	} else {
		for _, p := range r.Players {
			if p.Role == RoleCivilian && !p.IsEliminated {
				p.Score += civilianWinPoints
				results = append(results, scored{p.ID, p.Name, civilianWinPoints})
			}
		}
	}

	log.Printf("🏁 房间 %s 对局结束，胜者: %s", r.Code, winner)

	// 异步记录积分，不阻塞房间
	if r.server != nil && r.server.store != nil {
		store := r.server.store
		go func() {
			ctx := context.Background()
			for _, s := range results {
				if err := store.RecordScore(ctx, s.id, s.name, s.points); err != nil {
					log.Printf("记录积分失败: %v", err)
				}
			}
		}()
	}
}

// resetToLobbyLocked 回到大厅：清空对局字段，保留玩家和积分。
func (r *Room) resetToLobbyLocked() {
	r.timerGen++ // 作废未触发的定时器
	r.Phase = PhaseLobby
	r.Topic = ""
	r.Keyword = ""
	r.CurrentTurnID = ""
	r.CurrentRound = 0
	r.Winner = WinnerNone
	r.EliminatedPlayerID = ""
	r.LastGuess = ""
	r.SkipVotes = 0

	for _, p := range r.Players {
		p.Role = RoleNone
		p.IsEliminated = false
		p.Hint = ""
		p.VoteCount = 0
		p.HasVoted = false
	}
}

func (r *Room) findPlayer(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) activeCount() int {
	count := 0
	for _, p := range r.Players {
		if !p.IsEliminated {
			count++
		}
	}
	return count
}

func (r *Room) impostorAlive() bool {
	for _, p := range r.Players {
		if p.Role == RoleImpostor && !p.IsEliminated {
			return true
		}
	}
	return false
}

// allActiveHinted 所有存活玩家是否都已给出非空提示
func (r *Room) allActiveHinted() bool {
	for _, p := range r.Players {
		if !p.IsEliminated && strings.TrimSpace(p.Hint) == "" {
			return false
		}
	}
	return true
}

// allActiveVoted 所有存活玩家是否都已投票
func (r *Room) allActiveVoted() bool {
	for _, p := range r.Players {
		if !p.IsEliminated && !p.HasVoted {
			return false
		}
	}
	return true
}

// nextActiveAfter 从指定玩家之后环形查找下一名存活玩家
func (r *Room) nextActiveAfter(id string) string {
	n := len(r.Players)
	start := 0
	for i, p := range r.Players {
		if p.ID == id {
			start = i
			break
		}
	}
	for k := 1; k <= n; k++ {
		p := r.Players[(start+k)%n]
		if !p.IsEliminated {
			return p.ID
		}
	}
	return id
}

// nextActiveFromIndex 从指定下标（含）起环形查找存活玩家，
// 用于当前回合玩家被移除后顺延回合。
func (r *Room) nextActiveFromIndex(idx int) string {
	n := len(r.Players)
	if n == 0 {
		return ""
	}
	for k := 0; k < n; k++ {
		p := r.Players[(idx+k)%n]
		if !p.IsEliminated {
			return p.ID
		}
	}
	return ""
}

// firstActiveID 加入顺序最靠前的存活玩家
func (r *Room) firstActiveID() string {
	for _, p := range r.Players {
		if !p.IsEliminated {
			return p.ID
		}
	}
	return ""
}

func (r *Room) snapshotLocked() protocol.RoomStatePayload {
	players := make([]protocol.PlayerInfo, len(r.Players))
	for i, p := range r.Players {
		players[i] = protocol.PlayerInfo{
			ID:           p.ID,
			Name:         p.Name,
			Avatar:       p.Avatar,
			Role:         string(p.Role),
			IsHost:       p.IsHost,
			IsEliminated: p.IsEliminated,
			Hint:         p.Hint,
			VoteCount:    p.VoteCount,
			HasVoted:     p.HasVoted,
			Score:        p.Score,
		}
	}

	return protocol.RoomStatePayload{
		RoomID:             r.Code,
		Phase:              string(r.Phase),
		Players:            players,
		Topic:              r.Topic,
		Keyword:            r.Keyword,
		CurrentTurnID:      r.CurrentTurnID,
		CurrentRound:       r.CurrentRound,
		MaxRounds:          r.MaxRounds,
		Winner:             string(r.Winner),
		EliminatedPlayerID: r.EliminatedPlayerID,
		LastGuess:          r.LastGuess,
		SkipVotes:          r.SkipVotes,
	}
}

// broadcastLocked 将房间快照广播给房间内所有在线连接。
// 发送只是投递到各连接的发送缓冲，不会阻塞房间锁。
func (r *Room) broadcastLocked() {
	snapshot := r.snapshotLocked()
	msg := protocol.MustNewMessage(protocol.MsgRoomState, snapshot)

	for _, p := range r.Players {
		if p.client != nil {
			p.client.SendMessage(msg)
		}
	}

	// 异步镜像到 Redis，仅用于观测，不参与状态恢复
	if r.server != nil && r.server.store != nil {
		store := r.server.store
		code := r.Code
		go func() { _ = store.SaveRoom(context.Background(), code, &snapshot) }()
	}
}
