package db

import (
	"context"

	"github.com/ukydev/safe-route/internal/models"
)

// AccidentStore defines the interface for reading accident samples.
type AccidentStore interface {
	LoadAccidents(ctx context.Context) ([]models.Accident, error)
}

// AccidentWriter is implemented by stores that can be seeded.
type AccidentWriter interface {
	InsertAccidents(ctx context.Context, accidents []models.Accident) error
	DeleteAll(ctx context.Context) error
}

// Seed replaces the contents of dst with the samples of src.
func Seed(ctx context.Context, src AccidentStore, dst AccidentWriter) (int, error) {
	accidents, err := src.LoadAccidents(ctx)
	if err != nil {
		return 0, err
	}
	if err := dst.DeleteAll(ctx); err != nil {
		return 0, err
	}
	if err := dst.InsertAccidents(ctx, accidents); err != nil {
		return 0, err
	}
	return len(accidents), nil
}
