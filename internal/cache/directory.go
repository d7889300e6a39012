package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/pkg/logging"
)

const allOrganizations = "all"

// DirectoryCache keeps unfiltered doctor listings in redis, one key per
// organization plus one for the cross-organization listing. Cached users
// carry no credentials and must only be used for display.
type DirectoryCache struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

var _ scheduling.DirectoryCache = (*DirectoryCache)(nil)

// NewDirectoryCache creates a cache with the given entry lifetime.
func NewDirectoryCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *DirectoryCache {
	if client == nil {
		panic("cache: redis client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DirectoryCache{redis: client, ttl: ttl, logger: logger.With("component", "directory_cache")}
}

func (c *DirectoryCache) key(orgID string) string {
	if orgID == "" {
		orgID = allOrganizations
	}
	return fmt.Sprintf("clinic:directory:doctors:%s", orgID)
}

// GetDoctors returns the cached listing; redis errors count as a miss.
func (c *DirectoryCache) GetDoctors(ctx context.Context, orgID string) ([]models.User, bool) {
	data, err := c.redis.Get(ctx, c.key(orgID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("directory cache get failed", "org_id", orgID, "error", err)
		return nil, false
	}

	var doctors []models.User
	if err := json.Unmarshal(data, &doctors); err != nil {
		c.logger.Warn("directory cache entry corrupt", "org_id", orgID, "error", err)
		return nil, false
	}
	return doctors, true
}

// SetDoctors stores a listing; failures are logged and otherwise ignored.
func (c *DirectoryCache) SetDoctors(ctx context.Context, orgID string, doctors []models.User) {
	if doctors == nil {
		doctors = []models.User{}
	}
	data, err := json.Marshal(doctors)
	if err != nil {
		c.logger.Warn("directory cache marshal failed", "org_id", orgID, "error", err)
		return
	}
	if err := c.redis.Set(ctx, c.key(orgID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("directory cache set failed", "org_id", orgID, "error", err)
	}
}

// Invalidate drops the listing of orgID.
func (c *DirectoryCache) Invalidate(ctx context.Context, orgID string) {
	if err := c.redis.Del(ctx, c.key(orgID)).Err(); err != nil {
		c.logger.Warn("directory cache invalidate failed", "org_id", orgID, "error", err)
	}
}

// Connect opens a redis client and checks it with PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: ping redis %s: %w", addr, err)
	}
	return client, nil
}
