package server

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/palemoky/find-the-impostor/internal/config"
	"github.com/palemoky/find-the-impostor/internal/topic"
)

const (
	// 房间号长度
	roomCodeLength = 6
	// 房间号字符集，去除了 0/O、1/I 等易混淆字符
	roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// RoomManager 房间管理器：负责房间的创建、查找和销毁。
// 房间内部状态由各房间自己的锁保护，这里只保护房间表。
type RoomManager struct {
	server *Server
	topics topic.Provider
	rooms  map[string]*Room
	mu     sync.RWMutex

	revealDelay      time.Duration
	defaultMaxRounds int
}

// NewRoomManager 创建房间管理器
func NewRoomManager(s *Server, topics topic.Provider, cfg *config.GameConfig) *RoomManager {
	revealDelay := 5 * time.Second
	maxRounds := 10
	if cfg != nil {
		revealDelay = cfg.RoleRevealDelayDuration()
		maxRounds = cfg.DefaultMaxRounds
	}

	return &RoomManager{
		server:           s,
		topics:           topics,
		rooms:            make(map[string]*Room),
		revealDelay:      revealDelay,
		defaultMaxRounds: maxRounds,
	}
}

// CreateRoom 创建房间，创建者自动入座并成为房主
func (rm *RoomManager) CreateRoom(client *Client, name string) (*Room, error) {
	rm.mu.Lock()
	code := rm.generateRoomCode()
	room := newRoom(code, rm.server, rm.topics, rm.revealDelay, rm.defaultMaxRounds)
	rm.rooms[code] = room
	rm.mu.Unlock()

	// 空房间加入不会失败
	_ = room.AddPlayer(client, name)

	log.Printf("🏠 房间 %s 已创建", code)
	return room, nil
}

// GetRoom 获取房间
func (rm *RoomManager) GetRoom(code string) *Room {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.rooms[code]
}

// LeaveRoom 将客户端移出其所在房间，房间空了就销毁。
// 断线和主动换房共用这条路径。
func (rm *RoomManager) LeaveRoom(client *Client) {
	code := client.GetRoom()
	if code == "" {
		return
	}

	rm.mu.RLock()
	room := rm.rooms[code]
	rm.mu.RUnlock()
	if room == nil {
		client.SetRoom("")
		return
	}

	if room.RemovePlayer(client.ID) {
		rm.removeRoom(code)
	}
	client.SetRoom("")
}

// removeRoom 销毁房间
func (rm *RoomManager) removeRoom(code string) {
	rm.mu.Lock()
	delete(rm.rooms, code)
	rm.mu.Unlock()

	if rm.server != nil && rm.server.store != nil {
		store := rm.server.store
		go func() { _ = store.DeleteRoom(context.Background(), code) }()
	}

	log.Printf("🏠 房间 %s 已解散", code)
}

// RoomCount 当前房间数
func (rm *RoomManager) RoomCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.rooms)
}

// ActiveGamesCount 对局进行中的房间数
func (rm *RoomManager) ActiveGamesCount() int {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	count := 0
	for _, room := range rm.rooms {
		snapshot := room.Snapshot()
		if snapshot.Phase != string(PhaseLobby) && snapshot.Phase != string(PhaseResult) {
			count++
		}
	}
	return count
}

// generateRoomCode 生成唯一房间号，冲突时重试。
// 调用方必须持有 rm.mu。
func (rm *RoomManager) generateRoomCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.Intn(len(roomCodeChars))]
		}
		codeStr := string(code)
		if _, exists := rm.rooms[codeStr]; !exists {
			return codeStr
		}
	}
}
