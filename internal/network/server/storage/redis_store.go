package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/find-the-impostor/internal/network/protocol"
)

const (
	// Redis key
	roomKeyPrefix  = "room:"
	leaderboardKey = "leaderboard:score"
	playerNamesKey = "leaderboard:names"

	// 房间镜像过期时间。房间是纯内存状态，Redis 里只留一份只读镜像
	// 供运维排查，服务重启不做恢复。
	roomExpiration = 2 * time.Hour
)

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 房间镜像 ---

// SaveRoom 保存房间快照到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, code string, snapshot *protocol.RoomStatePayload) error {
	if snapshot == nil {
		return nil
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("序列化房间快照失败: %w", err)
	}

	key := roomKeyPrefix + code
	return rs.client.Set(ctx, key, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 读取房间快照
func (rs *RedisStore) LoadRoom(ctx context.Context, code string) (*protocol.RoomStatePayload, error) {
	key := roomKeyPrefix + code
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var snapshot protocol.RoomStatePayload
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("反序列化房间快照失败: %w", err)
	}

	return &snapshot, nil
}

// DeleteRoom 从 Redis 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context, code string) error {
	key := roomKeyPrefix + code
	return rs.client.Del(ctx, key).Err()
}

// --- 跨房间积分榜 ---

// RecordScore 累加玩家积分并记录昵称
func (rs *RedisStore) RecordScore(ctx context.Context, playerID, playerName string, points int) error {
	pipe := rs.client.Pipeline()
	pipe.ZIncrBy(ctx, leaderboardKey, float64(points), playerID)
	pipe.HSet(ctx, playerNamesKey, playerID, playerName)
	_, err := pipe.Exec(ctx)
	return err
}

// TopPlayers 获取积分榜前 limit 名（从高到低）
func (rs *RedisStore) TopPlayers(ctx context.Context, limit int) ([]protocol.LeaderboardEntry, error) {
	results, err := rs.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]protocol.LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}

		name, err := rs.client.HGet(ctx, playerNamesKey, playerID).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}

		entries = append(entries, protocol.LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   playerID,
			PlayerName: name,
			Score:      int(result.Score),
		})
	}

	return entries, nil
}
