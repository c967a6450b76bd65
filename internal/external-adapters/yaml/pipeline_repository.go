package yaml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// PipelineRepository implements repositories.PipelineRepository using YAML files
type PipelineRepository struct {
	pipelinesDir string
	parser       *PipelineParser
}

// NewPipelineRepository creates a new YAML-based pipeline repository
func NewPipelineRepository(pipelinesDir string) *PipelineRepository {
	return &PipelineRepository{
		pipelinesDir: pipelinesDir,
		parser:       NewPipelineParser(),
	}
}

// GetPipeline retrieves a pipeline definition by name
func (r *PipelineRepository) GetPipeline(_ context.Context, name string) (*entities.Pipeline, error) {
	for _, ext := range []string{".yml", ".yaml"} {
		filePath := filepath.Join(r.pipelinesDir, name+ext)
		if _, err := os.Stat(filePath); err == nil {
			return r.parser.ParseFile(filePath)
		}
	}
	return nil, fmt.Errorf("pipeline not found: %s", name)
}

// ListPipelines returns all available pipeline definitions
func (r *PipelineRepository) ListPipelines(_ context.Context) ([]*entities.Pipeline, error) {
	entries, err := os.ReadDir(r.pipelinesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipelines directory: %w", err)
	}

	pipelines := make([]*entities.Pipeline, 0)
	for _, entry := range entries {
		// Skip non-YAML files
		if entry.IsDir() || !hasYAMLSuffix(entry.Name()) {
			continue
		}

		filePath := filepath.Join(r.pipelinesDir, entry.Name())
		def, err := r.parser.ParseFile(filePath)
		if err != nil {
			// Log warning but continue processing other files
			fmt.Fprintf(os.Stderr, "Warning: failed to parse %s: %v\n", entry.Name(), err)
			continue
		}

		pipelines = append(pipelines, def)
	}

	return pipelines, nil
}

// GetPipelinesByStage returns pipelines that declare a specific stage
func (r *PipelineRepository) GetPipelinesByStage(ctx context.Context, stage string) ([]*entities.Pipeline, error) {
	allDefs, err := r.ListPipelines(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*entities.Pipeline, 0)
	for _, def := range allDefs {
		if def.StageIndex(stage) >= 0 {
			filtered = append(filtered, def)
		}
	}

	return filtered, nil
}

func hasYAMLSuffix(name string) bool {
	return strings.HasSuffix(name, ".yml") || strings.HasSuffix(name, ".yaml")
}
