package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/valpere/bookflow/internal"
)

// Redis stores each version as a hash and indexes an owner's versions in a set.
//
// Layout, with every identifier passed through Key:
//
//	{prefix}version:{owner}:{book}:{chapter}  hash  owner book chapter content schema_version updated_at
//	{prefix}owner:{owner}                     set   version keys
//	{prefix}ratings:{owner}:{book}            list  scores
//	{prefix}rated:{owner}                     set   rated book titles
type Redis struct {
	rdb    *redis.Client
	prefix string
}

const defaultRedisPrefix = "bookflow:"

// OpenRedis connects to Redis and verifies the connection with a PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(rdb, cfg.Prefix), nil
}

// NewRedis wraps an existing client. An empty prefix uses "bookflow:".
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &Redis{rdb: rdb, prefix: prefix}
}

func (r *Redis) versionKey(owner, book, chapter string) string {
	return r.prefix + "version:" + Key(owner, book, chapter)
}

func (r *Redis) ownerKey(owner string) string { return r.prefix + "owner:" + Key(owner) }
func (r *Redis) ratedKey(owner string) string { return r.prefix + "rated:" + Key(owner) }

func (r *Redis) ratingsKey(owner, book string) string {
	return r.prefix + "ratings:" + Key(owner, book)
}

func (r *Redis) Save(ctx context.Context, owner, book, chapter, content string) error {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return err
	}
	key := r.versionKey(owner, book, chapter)

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]any{
			"owner":          owner,
			"book":           book,
			"chapter":        chapter,
			"content":        content,
			"schema_version": SchemaVersion,
			"updated_at":     time.Now().UTC().Format(time.RFC3339Nano),
		})
		pipe.SAdd(ctx, r.ownerKey(owner), key)
		return nil
	})
	return err
}

func (r *Redis) Get(ctx context.Context, owner, book, chapter string) (internal.Version, error) {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return internal.Version{}, err
	}
	fields, err := r.rdb.HGetAll(ctx, r.versionKey(owner, book, chapter)).Result()
	if err != nil {
		return internal.Version{}, err
	}
	if len(fields) == 0 {
		return internal.Version{}, ErrNotFound
	}
	return versionFromHash(fields), nil
}

func (r *Redis) List(ctx context.Context, owner string) ([]internal.Version, error) {
	keys, err := r.rdb.SMembers(ctx, r.ownerKey(Normalize(owner))).Result()
	if err != nil {
		return nil, err
	}

	versions := []internal.Version{}
	if len(keys) == 0 {
		return versions, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = pipe.HGetAll(ctx, k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		versions = append(versions, versionFromHash(fields))
	}
	sortVersions(versions)
	return versions, nil
}

func (r *Redis) Delete(ctx context.Context, owner, book, chapter string) error {
	owner, book, chapter, err := normalizeIDs(owner, book, chapter)
	if err != nil {
		return err
	}
	key := r.versionKey(owner, book, chapter)

	var del *redis.IntCmd
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, key)
		pipe.SRem(ctx, r.ownerKey(owner), key)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) Rate(ctx context.Context, owner, book string, score int) error {
	if err := validateRating(score); err != nil {
		return err
	}
	owner, book = Normalize(owner), Normalize(book)
	if owner == "" || book == "" {
		return ErrEmptyField
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.ratingsKey(owner, book), score)
		pipe.SAdd(ctx, r.ratedKey(owner), book)
		return nil
	})
	return err
}

func (r *Redis) Ratings(ctx context.Context, owner string) (map[string][]int, error) {
	owner = Normalize(owner)
	books, err := r.rdb.SMembers(ctx, r.ratedKey(owner)).Result()
	if err != nil {
		return nil, err
	}

	ratings := map[string][]int{}
	for _, book := range books {
		vals, err := r.rdb.LRange(ctx, r.ratingsKey(owner, book), 0, -1).Result()
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			score, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("corrupt rating %q for %q: %w", v, book, err)
			}
			ratings[book] = append(ratings[book], score)
		}
	}
	return ratings, nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

func versionFromHash(fields map[string]string) internal.Version {
	v := internal.Version{
		Owner:   fields["owner"],
		Book:    fields["book"],
		Chapter: fields["chapter"],
		Content: fields["content"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		v.UpdatedAt = ts
	}
	return v
}
