package items

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
	itemKeyPrefix    = "item:"
	floorIndexPrefix = "item:floor:"

	dataField  = "data"
	ownerField = "owner"

	errItemNil     = "item cannot be nil"
	errItemIDEmpty = "item ID cannot be empty"
)

// claimScript sets the owner field only while it is still empty.
var claimScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
local owner = redis.call("HGET", KEYS[1], "owner")
if owner and owner ~= "" then
	return 0
end
redis.call("HSET", KEYS[1], "owner", ARGV[1])
return 1
`)

// deleteIfUnclaimedScript removes the record and its index entry only while
// the owner field is still empty.
var deleteIfUnclaimedScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
local owner = redis.call("HGET", KEYS[1], "owner")
if owner and owner ~= "" then
	return 0
end
redis.call("DEL", KEYS[1])
if KEYS[2] ~= "" then
	redis.call("SREM", KEYS[2], ARGV[1])
end
return 1
`)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis item repository.
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

// NewRedis creates a new Redis-backed item repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Item == nil {
		return nil, errors.InvalidArgument(errItemNil)
	}
	if input.Item.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}
	if input.Item.Floor == "" {
		return nil, errors.InvalidArgument("item floor cannot be empty")
	}

	data, err := json.Marshal(input.Item)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal item")
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, itemKeyPrefix+input.Item.ID, dataField, data, ownerField, input.Item.Owner)
	pipe.SAdd(ctx, floorIndexPrefix+input.Item.Floor, input.Item.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create item")
	}

	return &CreateOutput{Item: input.Item}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}

	result, err := r.client.HGet(ctx, itemKeyPrefix+input.ID, dataField).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("item %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get item")
	}

	var item entities.Item
	if err := json.Unmarshal([]byte(result), &item); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal item")
	}

	// The owner field is authoritative; the data blob may lag behind.
	owner, err := r.client.HGet(ctx, itemKeyPrefix+input.ID, ownerField).Result()
	if err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to get item owner")
	}
	item.Owner = owner

	return &GetOutput{Item: &item}, nil
}

func (r *redisRepository) GetOwner(ctx context.Context, input GetOwnerInput) (*GetOwnerOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}

	exists, err := r.client.Exists(ctx, itemKeyPrefix+input.ID).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists == 0 {
		return nil, errors.NotFoundf("item %s not found", input.ID)
	}

	owner, err := r.client.HGet(ctx, itemKeyPrefix+input.ID, ownerField).Result()
	if err != nil && err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to get item owner")
	}

	return &GetOwnerOutput{Owner: owner}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Item == nil {
		return nil, errors.InvalidArgument(errItemNil)
	}
	if input.Item.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}

	data, err := json.Marshal(input.Item)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal item")
	}
	if err := r.client.HSet(ctx, itemKeyPrefix+input.Item.ID, dataField, data).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update item")
	}

	return &UpdateOutput{Item: input.Item}, nil
}

func (r *redisRepository) ListByFloor(ctx context.Context, input ListByFloorInput) (*ListByFloorOutput, error) {
	if input.Floor == "" {
		return nil, errors.InvalidArgument("floor cannot be empty")
	}

	indexKey := floorIndexPrefix + input.Floor
	ids, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list items for floor %s", input.Floor)
	}

	out := make([]*entities.Item, 0, len(ids))
	for _, id := range ids {
		getOutput, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "item missing, cleaning up index",
					"item_id", id,
					"floor", input.Floor)
				r.client.SRem(ctx, indexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get item %s", id)
		}
		out = append(out, getOutput.Item)
	}

	return &ListByFloorOutput{Items: out}, nil
}

func (r *redisRepository) Claim(ctx context.Context, input ClaimInput) (*ClaimOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}
	if input.Owner == "" {
		return nil, errors.InvalidArgument("owner cannot be empty")
	}

	modified, err := claimScript.Run(ctx, r.client,
		[]string{itemKeyPrefix + input.ID},
		input.Owner,
	).Int()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to claim item %s", input.ID)
	}

	return &ClaimOutput{Modified: modified}, nil
}

func (r *redisRepository) DeleteIfUnclaimed(ctx context.Context, input DeleteIfUnclaimedInput) (*DeleteIfUnclaimedOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument(errItemIDEmpty)
	}

	indexKey := ""
	if input.Floor != "" {
		indexKey = floorIndexPrefix + input.Floor
	}

	deleted, err := deleteIfUnclaimedScript.Run(ctx, r.client,
		[]string{itemKeyPrefix + input.ID, indexKey},
		input.ID,
	).Int()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to delete item %s", input.ID)
	}

	return &DeleteIfUnclaimedOutput{Deleted: deleted}, nil
}
