package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/product"
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/postgres"

	"github.com/redis/go-redis/v9"
)

// GetProduct is a cache-aside read. The short TTL keeps balances fresh enough
// for the status-polling UI without hammering the products table.
type GetProduct struct {
	redisClient *redis.Client
	products    *postgres.ProductRepository
}

func NewGetProduct(redisClient *redis.Client, products *postgres.ProductRepository) *GetProduct {
	return &GetProduct{
		redisClient: redisClient,
		products:    products,
	}
}

func (uc *GetProduct) Execute(ctx context.Context, productID string) (*product.Product, error) {
	cacheKey := fmt.Sprintf("product:%s", productID)

	if uc.redisClient != nil {
		val, err := uc.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p product.Product
			if err := json.Unmarshal([]byte(val), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		data, _ := json.Marshal(p)
		uc.redisClient.Set(ctx, cacheKey, data, 1*time.Second)
	}

	return p, nil
}
