// Package storage persists finished runs and their final populations.
package storage

import (
	"context"
	"errors"

	"github.com/adi-muresan/circuit-planner/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store defines the persistence operations for runs and populations.
// Get methods report a missing record with ok=false and a nil error.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, bool, error)
	// ListRuns returns every run, newest first.
	ListRuns(ctx context.Context) ([]model.Run, error)
	SavePopulation(ctx context.Context, population model.Population) error
	GetPopulation(ctx context.Context, id string) (model.Population, bool, error)
}
