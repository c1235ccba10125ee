package players

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	redisclient "github.com/deepdelve/dungeon-api/internal/redis"
)

const (
	playerKeyPrefix = "player:"

	errPlayerNil     = "player cannot be nil"
	errPlayerIDEmpty = "player ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis player repository.
type RedisConfig struct {
	Client redisclient.Client
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed player repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Upsert(ctx context.Context, input UpsertInput) (*UpsertOutput, error) {
	if input.Player == nil {
		return nil, errors.InvalidArgument(errPlayerNil)
	}
	if input.Player.ID == "" {
		return nil, errors.InvalidArgument(errPlayerIDEmpty)
	}

	data, err := json.Marshal(input.Player)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal player")
	}
	if err := r.client.Set(ctx, playerKeyPrefix+input.Player.ID, data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to upsert player")
	}

	return &UpsertOutput{Player: input.Player}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errPlayerIDEmpty)
	}

	result, err := r.client.Get(ctx, playerKeyPrefix+input.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("player %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get player")
	}

	var player entities.Player
	if err := json.Unmarshal([]byte(result), &player); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal player")
	}

	return &GetOutput{Player: &player}, nil
}

func (r *redisRepository) SetOnline(ctx context.Context, input SetOnlineInput) (*SetOnlineOutput, error) {
	getOutput, err := r.Get(ctx, GetInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	player := getOutput.Player
	player.Online = input.Online
	if _, err := r.Upsert(ctx, UpsertInput{Player: player}); err != nil {
		return nil, err
	}

	return &SetOnlineOutput{Player: player}, nil
}

func (r *redisRepository) SetFloor(ctx context.Context, input SetFloorInput) (*SetFloorOutput, error) {
	if input.Floor == "" {
		return nil, errors.InvalidArgument("floor cannot be empty")
	}

	getOutput, err := r.Get(ctx, GetInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	player := getOutput.Player
	player.Floor = input.Floor
	if _, err := r.Upsert(ctx, UpsertInput{Player: player}); err != nil {
		return nil, err
	}

	return &SetFloorOutput{Player: player}, nil
}
