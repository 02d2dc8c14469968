package main

import (
	"context"

	"aira/internal/model"
)

type nopVectors struct{}

func (nopVectors) SetEmbedding(ctx context.Context, id string, embedding []float32) error {
	return nil
}

func (nopVectors) Similar(ctx context.Context, id string, limit int) ([]model.Property, error) {
	return nil, nil
}
