package floornodes

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
	nodeKeyPrefix    = "floornode:"
	floorIndexPrefix = "floornode:floor:"
	allFloorsKey     = "floornode:floors"

	errNodeNameEmpty = "floor node name cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis floor node repository.
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

// NewRedis creates a new Redis-backed floor node repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) CreateBatch(ctx context.Context, input CreateBatchInput) (*CreateBatchOutput, error) {
	if len(input.Nodes) == 0 {
		return &CreateBatchOutput{}, nil
	}

	pipe := r.client.TxPipeline()
	for _, node := range input.Nodes {
		if node == nil || node.Name == "" {
			return nil, errors.InvalidArgument(errNodeNameEmpty)
		}
		if node.DungeonNode == "" {
			return nil, errors.InvalidArgumentf("floor node %s has no owning dungeon node", node.Name)
		}

		data, err := json.Marshal(node)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to marshal floor node %s", node.Name)
		}
		pipe.Set(ctx, nodeKeyPrefix+node.Name, data, 0)
		pipe.SAdd(ctx, floorIndexPrefix+node.DungeonNode, node.Name)
		pipe.SAdd(ctx, allFloorsKey, node.DungeonNode)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to persist floor graph")
	}

	return &CreateBatchOutput{Created: len(input.Nodes)}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNodeNameEmpty)
	}

	result, err := r.client.Get(ctx, nodeKeyPrefix+input.Name).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("floor node %s not found", input.Name)
		}
		return nil, errors.Wrapf(err, "failed to get floor node")
	}

	var node entities.FloorNode
	if err := json.Unmarshal([]byte(result), &node); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal floor node")
	}

	return &GetOutput{Node: &node}, nil
}

func (r *redisRepository) Update(ctx context.Context, input UpdateInput) (*UpdateOutput, error) {
	if input.Node == nil || input.Node.Name == "" {
		return nil, errors.InvalidArgument(errNodeNameEmpty)
	}

	key := nodeKeyPrefix + input.Node.Name
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists == 0 {
		return nil, errors.NotFoundf("floor node %s not found", input.Node.Name)
	}

	data, err := json.Marshal(input.Node)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal floor node")
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update floor node")
	}

	return &UpdateOutput{Node: input.Node}, nil
}

func (r *redisRepository) ListByDungeonNode(ctx context.Context, input ListByDungeonNodeInput) (*ListByDungeonNodeOutput, error) {
	if input.DungeonNode == "" {
		return nil, errors.InvalidArgument("dungeon node name cannot be empty")
	}

	indexKey := floorIndexPrefix + input.DungeonNode
	names, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list floor nodes for %s", input.DungeonNode)
	}

	nodes := make([]*entities.FloorNode, 0, len(names))
	for _, name := range names {
		getOutput, err := r.Get(ctx, GetInput{Name: name})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "floor node missing, cleaning up index",
					"name", name,
					"dungeon_node", input.DungeonNode)
				r.client.SRem(ctx, indexKey, name)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get floor node %s", name)
		}
		nodes = append(nodes, getOutput.Node)
	}

	return &ListByDungeonNodeOutput{Nodes: nodes}, nil
}

func (r *redisRepository) Reset(ctx context.Context) error {
	floors, err := r.client.SMembers(ctx, allFloorsKey).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to list floors")
	}

	pipe := r.client.TxPipeline()
	for _, floor := range floors {
		indexKey := floorIndexPrefix + floor
		names, err := r.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return errors.Wrapf(err, "failed to list floor nodes for %s", floor)
		}
		for _, name := range names {
			pipe.Del(ctx, nodeKeyPrefix+name)
		}
		pipe.Del(ctx, indexKey)
	}
	pipe.Del(ctx, allFloorsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to reset floor nodes")
	}
	return nil
}
