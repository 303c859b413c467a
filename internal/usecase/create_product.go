package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lucasantunesribeiro/korp-teste/internal/domain/product"

	"github.com/Lucasantunesribeiro/korp-teste/internal/infrastructure/postgres"
)

var ErrSKUAlreadyExists = errors.New("sku already registered")

type CreateProduct struct {
	products *postgres.ProductRepository
}

func NewCreateProduct(products *postgres.ProductRepository) *CreateProduct {
	return &CreateProduct{products: products}
}

type CreateProductParams struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	InitialBalance int    `json:"balance"`
}

func (uc *CreateProduct) Execute(ctx context.Context, params CreateProductParams) (*product.Product, error) {
	exists, err := uc.products.ExistsBySKU(ctx, params.SKU)
	if err != nil {
		return nil, fmt.Errorf("check sku: %w", err)
	}
	if exists {
		return nil, ErrSKUAlreadyExists
	}

	p, err := product.New(params.SKU, params.Name, params.InitialBalance)
	if err != nil {
		return nil, err
	}

	if err := uc.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return p, nil
}
