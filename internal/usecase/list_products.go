package usecase

import (
	"context"
	"fmt"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/product"
	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/postgres"
)

type ListProducts struct {
	products *postgres.ProductRepository
}

func NewListProducts(products *postgres.ProductRepository) *ListProducts {
	return &ListProducts{products: products}
}

func (uc *ListProducts) Execute(ctx context.Context) ([]*product.Product, error) {
	products, err := uc.products.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}
