package dungeonnodes

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
	nodeKeyPrefix = "dungeonnode:"
	allNodesKey   = "dungeonnode:all"

	errNodeNil       = "dungeon node cannot be nil"
	errNodeNameEmpty = "dungeon node name cannot be empty"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis dungeon node repository.
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

// NewRedis creates a new Redis-backed dungeon node repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Create(ctx context.Context, input CreateInput) (*CreateOutput, error) {
	if input.Node == nil {
		return nil, errors.InvalidArgument(errNodeNil)
	}
	if input.Node.Name == "" {
		return nil, errors.InvalidArgument(errNodeNameEmpty)
	}

	key := nodeKeyPrefix + input.Node.Name

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check existence")
	}
	if exists > 0 {
		return nil, errors.AlreadyExistsf("dungeon node %s already exists", input.Node.Name)
	}

	data, err := json.Marshal(input.Node)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal dungeon node")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	pipe.SAdd(ctx, allNodesKey, input.Node.Name)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to create dungeon node")
	}

	return &CreateOutput{Node: input.Node}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.Name == "" {
		return nil, errors.InvalidArgument(errNodeNameEmpty)
	}

	result, err := r.client.Get(ctx, nodeKeyPrefix+input.Name).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("dungeon node %s not found", input.Name)
		}
		return nil, errors.Wrapf(err, "failed to get dungeon node")
	}

	var node entities.DungeonNode
	if err := json.Unmarshal([]byte(result), &node); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal dungeon node")
	}

	return &GetOutput{Node: &node}, nil
}

func (r *redisRepository) AppendChild(ctx context.Context, input AppendChildInput) (*AppendChildOutput, error) {
	if input.Parent == "" || input.Child == "" {
		return nil, errors.InvalidArgument("parent and child names are required")
	}

	getOutput, err := r.Get(ctx, GetInput{Name: input.Parent})
	if err != nil {
		return nil, err
	}
	node := getOutput.Node
	node.Children = append(node.Children, input.Child)

	data, err := json.Marshal(node)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal dungeon node")
	}

	if err := r.client.Set(ctx, nodeKeyPrefix+input.Parent, data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to update dungeon node %s", input.Parent)
	}

	return &AppendChildOutput{Node: node}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	names, err := r.client.SMembers(ctx, allNodesKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list dungeon node names")
	}

	nodes := make([]*entities.DungeonNode, 0, len(names))
	for _, name := range names {
		getOutput, err := r.Get(ctx, GetInput{Name: name})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "dungeon node missing, cleaning up index",
					"name", name)
				r.client.SRem(ctx, allNodesKey, name)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get dungeon node %s", name)
		}
		nodes = append(nodes, getOutput.Node)
	}

	return &ListOutput{Nodes: nodes}, nil
}

func (r *redisRepository) Reset(ctx context.Context) error {
	names, err := r.client.SMembers(ctx, allNodesKey).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to list dungeon node names")
	}

	pipe := r.client.TxPipeline()
	for _, name := range names {
		pipe.Del(ctx, nodeKeyPrefix+name)
	}
	pipe.Del(ctx, allNodesKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrapf(err, "failed to reset dungeon nodes")
	}
	return nil
}
