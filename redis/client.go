package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	jsonpatch "github.com/evanphx/json-patch"
	"github.com/go-redis/redis/v8"
	"github.com/kelseyhightower/envconfig"
)

type DB int
type ReleaseLock func() error

// ErrNotFound is returned for keys that do not exist.
var ErrNotFound = errors.New("redis: key not found")

type Client struct {
	client         redis.UniversalClient
	lockExpiration time.Duration
}

var ctx = context.Background()

type Config struct {
	LockExpirationSeconds   int     `envconfig:"MDL_COMN_REDIS_LOCK_EXPIRATION" default:"3"`
	Host                    string  `envconfig:"MDL_COMN_REDIS_HOST" required:"true"`
	Port                    string  `envconfig:"MDL_COMN_REDIS_PORT" required:"true"`
	HASentinelPort          string  `envconfig:"MDL_COMN_REDIS_HA_SENTINEL_PORT" default:"26379"`
	HASentinelMasterName    string  `envconfig:"MDL_COMN_REDIS_HA_MASTER_NAME" default:"mymaster"`
	Password                string  `envconfig:"MDL_COMN_REDIS_AUTH_PASSWORD" default:"0"`
	AuthRequired            bool    `envconfig:"MDL_COMN_REDIS_AUTH_REQUIRED" default:"false"`
	HAMode                  bool    `envconfig:"MDL_COMN_REDIS_HA_MODE" default:"false"`
	HASentinelSocketTimeout float32 `envconfig:"MDL_COMN_REDIS_SOCKET_TIMEOUT" default:"0.5"`
}

func NewClient(db DB) (Client, error) {
	cfg, err := readEnvironment()
	if err != nil {
		return Client{}, err
	}
	var client redis.UniversalClient
	if cfg.HAMode {
		client = CreateClusterClient(cfg, db)
	} else {
		client = CreateClient(cfg, db)
	}
	return Client{
		client:         client,
		lockExpiration: time.Duration(cfg.LockExpirationSeconds) * time.Second,
	}, nil
}

func CreateClusterClient(cfg *Config, db DB) *redis.ClusterClient {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.HASentinelPort)
	timeout := time.Duration(cfg.HASentinelSocketTimeout * float32(time.Second))
	options := redis.FailoverOptions{
		SentinelAddrs: []string{addr},
		ReadTimeout:   timeout,
		WriteTimeout:  timeout,
		MaxRetries:    6,
		DB:            int(db),
		MasterName:    cfg.HASentinelMasterName,
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewFailoverClusterClient(&options)
}

func CreateClient(cfg *Config, db DB) *redis.Client {
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	options := redis.Options{
		Addr:       addr,
		MaxRetries: 6,
		DB:         int(db),
	}
	if cfg.AuthRequired {
		options.Password = cfg.Password
	}
	return redis.NewClient(&options)
}

func (client *Client) getBytes(redisKey string) ([]byte, error) {
	b, err := client.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redisKey)
	}
	return b, err
}

// GetDocument unmarshals the JSON document stored at redisKey into doc.
// Fields doc does not declare are ignored.
func (client *Client) GetDocument(redisKey string, doc interface{}) error {
	b, err := client.getBytes(redisKey)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, doc)
}

// UpdateDocument loads the document at redisKey into doc under a lock, runs
// update and writes back only what update changed, as a JSON merge patch on
// the stored document. Fields owned by other services are left untouched.
func (client *Client) UpdateDocument(redisKey string, doc interface{}, update func() error) (err error) {
	releaseLock, err := client.Lock(redisKey)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := releaseLock(); err == nil {
			err = releaseErr
		}
	}()

	raw, err := client.getBytes(redisKey)
	if err != nil {
		return err
	}
	merged, err := MergeUpdate(raw, doc, update)
	if err != nil {
		return err
	}
	return client.client.Set(ctx, redisKey, merged, 0).Err()
}

// MergeUpdate applies update to doc, loaded from raw, and returns raw with
// the resulting changes merged in.
func MergeUpdate(raw []byte, doc interface{}, update func() error) ([]byte, error) {
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	before, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := update(); err != nil {
		return nil, err
	}
	after, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(before, after)
	if err != nil {
		return nil, fmt.Errorf("creating merge patch: %w", err)
	}
	return jsonpatch.MergePatch(raw, patch)
}

func (client *Client) Lock(redisKey string) (ReleaseLock, error) {
	lockCl := redislock.New(client.client)
	str := redislock.LimitRetry(redislock.LinearBackoff(time.Second), 20)
	lockKey := fmt.Sprintf("lock:%s", redisKey)
	lock, err := lockCl.Obtain(ctx, lockKey, client.lockExpiration, &redislock.Options{RetryStrategy: str})
	if err != nil {
		return nil, err
	}
	return func() error {
		return lock.Release(ctx)
	}, nil
}

// GetString returns the value at redisKey and false if it does not exist.
func (client *Client) GetString(redisKey string) (string, bool, error) {
	value, err := client.client.Get(ctx, redisKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetString stores value at redisKey; a zero ttl keeps it forever.
func (client *Client) SetString(redisKey string, value string, ttl time.Duration) error {
	return client.client.Set(ctx, redisKey, value, ttl).Err()
}

func (client *Client) Close() error {
	return client.client.Close()
}

func readEnvironment() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
