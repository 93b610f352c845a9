package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"reservely/config"
	"reservely/database"
	"reservely/models"
	"reservely/utils"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultProviderDirectory reads provider preferences from mongo with a
// short redis cache in front.
type DefaultProviderDirectory struct {
	coll  *mongo.Collection
	cache *redis.Client
}

// NewDefaultProviderDirectory constructs the cached directory.
func NewDefaultProviderDirectory() *DefaultProviderDirectory {
	db := database.GetDB()
	return &DefaultProviderDirectory{
		coll:  db.Collection("providers"),
		cache: utils.GetCacheClient(),
	}
}

func (d *DefaultProviderDirectory) GetPreferences(ctx context.Context, providerID string) (*models.ProviderPreferences, error) {
	cacheKey := utils.PrefsCachePrefix + providerID

	if raw, err := d.cache.Get(ctx, cacheKey).Result(); err == nil {
		var prefs models.ProviderPreferences
		if jsonErr := json.Unmarshal([]byte(raw), &prefs); jsonErr == nil {
			return &prefs, nil
		}
		// Corrupt cache entry; fall through to mongo.
		d.cache.Del(ctx, cacheKey)
	}

	var prefs models.ProviderPreferences
	if err := d.coll.FindOne(ctx, bson.M{"id": providerID}).Decode(&prefs); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("error fetching provider %s: %w", providerID, err)
	}
	if prefs.AutoCompleteDelayHours <= 0 {
		prefs.AutoCompleteDelayHours = config.AppConfig.DefaultAutoCompleteDelayHours
	}

	if data, err := json.Marshal(prefs); err == nil {
		if err := d.cache.Set(ctx, cacheKey, data, utils.PrefsCacheTTL).Err(); err != nil {
			utils.GetLogger().Warn("failed to cache provider preferences",
				zap.String("provider_id", providerID), zap.Error(err))
		}
	}
	return &prefs, nil
}
