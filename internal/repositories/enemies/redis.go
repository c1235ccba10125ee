package enemies

import (
	"context"
	"encoding/json"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/deepdelve/dungeon-api/internal/entities"
	"github.com/deepdelve/dungeon-api/internal/errors"
	redisclient "github.com/deepdelve/dungeon-api/internal/redis"
)

const (
	enemyKeyPrefix   = "enemy:"
	floorIndexPrefix = "enemy:floor:"

	errEnemyNil     = "enemy cannot be nil"
	errEnemyIDEmpty = "enemy ID cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis enemy repository.
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

// NewRedis creates a new Redis-backed enemy repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Enemy == nil {
		return nil, errors.InvalidArgument(errEnemyNil)
	}
	if input.Enemy.ID == "" {
		return nil, errors.InvalidArgument(errEnemyIDEmpty)
	}
	if input.Enemy.Floor == "" {
		return nil, errors.InvalidArgument("enemy floor cannot be empty")
	}

	data, err := json.Marshal(input.Enemy)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal enemy")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, enemyKeyPrefix+input.Enemy.ID, data, 0)
	pipe.SAdd(ctx, floorIndexPrefix+input.Enemy.Floor, input.Enemy.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create enemy")
	}

	return &CreateOutput{Enemy: input.Enemy}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEnemyIDEmpty)
	}

	result, err := r.client.Get(ctx, enemyKeyPrefix+input.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("enemy %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get enemy")
	}

	var enemy entities.Enemy
	if err := json.Unmarshal([]byte(result), &enemy); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal enemy")
	}

	return &GetOutput{Enemy: &enemy}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Enemy == nil {
		return nil, errors.InvalidArgument(errEnemyNil)
	}
	if input.Enemy.ID == "" {
		return nil, errors.InvalidArgument(errEnemyIDEmpty)
	}

	data, err := json.Marshal(input.Enemy)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal enemy")
	}
	if err := r.client.Set(ctx, enemyKeyPrefix+input.Enemy.ID, data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update enemy")
	}

	return &UpdateOutput{Enemy: input.Enemy}, nil
}

func (r *redisRepository) ListByFloor(ctx context.Context, input ListByFloorInput) (*ListByFloorOutput, error) {
	if input.Floor == "" {
		return nil, errors.InvalidArgument("floor cannot be empty")
	}

	indexKey := floorIndexPrefix + input.Floor
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list enemies for floor %s", input.Floor)
	}

	out := make([]*entities.Enemy, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "enemy missing, cleaning up index",
					"enemy_id", id,
					"floor", input.Floor)
				r.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get enemy %s", id)
		}
		out = append(out, getOutput.Enemy)
	}

	return &ListByFloorOutput{Enemies: out}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errEnemyIDEmpty)
	}

	deleted, err := r.client.Del(ctx, enemyKeyPrefix+input.ID).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to delete enemy")
	}
	if input.Floor != "" {
		r.client.SRem(ctx, floorIndexPrefix+input.Floor, input.ID)
	}

	return &DeleteOutput{Deleted: int(deleted)}, nil
}
