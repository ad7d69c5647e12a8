// Package cache keeps hot device data in Redis: the latest state, pending
// outbound commands and live TCP sessions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"telematics/internal/core/model"
)

// ErrDisabled is returned by writes that cannot be silently dropped.
var ErrDisabled = errors.New("redis cache disabled")

// Client wraps a Redis connection. A Client without a connection is disabled:
// reads miss and best effort writes are dropped.
type Client struct {
	rdb *redis.Client
}

// New connects to redisURL. Any failure yields a disabled client so the
// server keeps running without a cache.
func New(redisURL string) *Client {
	if redisURL == "" {
		log.Info().Msg("redis URL not provided, caching disabled")
		return &Client{}
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("failed to parse redis URL, caching disabled")
		return &Client{}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to connect to redis, caching disabled")
		_ = rdb.Close()
		return &Client{}
	}

	log.Info().Str("addr", opt.Addr).Msg("redis cache initialized")
	return &Client{rdb: rdb}
}

// NewWithClient wraps an existing connection.
func NewWithClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

func StateKey(deviceID string) string {
	return "device:state:" + deviceID
}

func CommandsKey(deviceID string) string {
	return "device:commands:" + deviceID
}

func SessionKey(deviceID string) string {
	return "device:session:" + deviceID
}

// Set stores value as JSON with expiration.
func (c *Client) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, expiration).Err()
}

// Get decodes the JSON value at key into dest. A miss returns redis.Nil.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return redis.Nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *Client) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Del(ctx, key).Err()
}

// PushCommand appends cmd to the device's outbound queue.
func (c *Client) PushCommand(ctx context.Context, cmd model.Command) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return c.rdb.RPush(ctx, CommandsKey(cmd.DeviceID), data).Err()
}

// DrainCommands atomically takes every queued command for deviceID, oldest first.
func (c *Client) DrainCommands(ctx context.Context, deviceID string) ([]model.Command, error) {
	if !c.Enabled() {
		return nil, nil
	}

	key := CommandsKey(deviceID)
	pipe := c.rdb.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	commands := make([]model.Command, 0, len(items.Val()))
	for _, item := range items.Val() {
		var cmd model.Command
		if err := json.Unmarshal([]byte(item), &cmd); err != nil {
			return commands, fmt.Errorf("decode queued command for %s: %w", deviceID, err)
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// Session records which gateway connection serves a device.
type Session struct {
	DeviceID    string    `json:"deviceId"`
	Protocol    string    `json:"protocol"`
	RemoteAddr  string    `json:"remoteAddr"`
	ConnectedAt time.Time `json:"connectedAt"`
}

func (c *Client) RegisterSession(ctx context.Context, s Session, ttl time.Duration) error {
	return c.Set(ctx, SessionKey(s.DeviceID), s, ttl)
}

func (c *Client) ClearSession(ctx context.Context, deviceID string) error {
	return c.Delete(ctx, SessionKey(deviceID))
}
