package repository

import (
	"context"
	"time"

	"github.com/eaglebank/console/shared/models"
	sharedredis "github.com/eaglebank/console/shared/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const profileViewKeyPrefix = "console:profile:"

// AccountReadRepository serves profile views from Redis, falling back to the
// account store and warming the cache on every cold read.
type AccountReadRepository struct {
	store AccountStore
	cache *sharedredis.ViewCache[models.ProfileView]
}

// NewAccountReadRepository builds the read side. A nil redisClient disables
// caching. Accounts also change outside this service, so cached views expire
// after ttl; ttl must be positive.
func NewAccountReadRepository(store AccountStore, redisClient goredis.Cmdable, ttl time.Duration, logger *zap.Logger) *AccountReadRepository {
	r := &AccountReadRepository{store: store}
	if redisClient != nil && ttl > 0 {
		r.cache = sharedredis.NewViewCache[models.ProfileView](redisClient, ttl, logger)
	}
	return r
}

// GetProfile returns the profile view of userID, or errs.ErrAccountNotFound.
func (r *AccountReadRepository) GetProfile(ctx context.Context, userID string) (*models.ProfileView, error) {
	cacheKey := profileViewKeyPrefix + userID

	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	account, err := r.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	view := models.ProfileFromAccount(account)
	r.cache.Set(ctx, cacheKey, view)
	return view, nil
}

// InvalidateProfile drops the cached view so the next read hits the store.
func (r *AccountReadRepository) InvalidateProfile(ctx context.Context, userID string) {
	r.cache.Delete(ctx, profileViewKeyPrefix+userID)
}
