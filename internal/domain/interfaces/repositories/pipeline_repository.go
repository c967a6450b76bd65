// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// PipelineRepository defines the interface for accessing pipeline definitions
type PipelineRepository interface {
	// GetPipeline retrieves a pipeline definition by name
	GetPipeline(ctx context.Context, name string) (*entities.Pipeline, error)

	// ListPipelines returns all available pipeline definitions
	ListPipelines(ctx context.Context) ([]*entities.Pipeline, error)

	// GetPipelinesByStage returns pipelines that declare a specific stage
	GetPipelinesByStage(ctx context.Context, stage string) ([]*entities.Pipeline, error)
}
