// Package yaml provides YAML-based pipeline parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// reservedKeys are top-level keys that are not job names.
var reservedKeys = map[string]bool{
	"version":   true,
	"name":      true,
	"stages":    true,
	"variables": true,
	"default":   true,
}

// stringList accepts both a single scalar and a sequence of scalars.
// The schema allows `script: pytest` as shorthand for a one-entry list.
type stringList []string

// UnmarshalYAML implements yaml.Unmarshaler
func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var single string
		if err := node.Decode(&single); err != nil {
			return err
		}
		*s = stringList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = stringList(list)
		return nil
	default:
		return fmt.Errorf("line %d: expected string or list of strings", node.Line)
	}
}

// yamlJob represents the raw YAML structure of one job
type yamlJob struct {
	Stage          string            `yaml:"stage"`
	Image          string            `yaml:"image"`
	BeforeScript   stringList        `yaml:"before_script"`
	Script         stringList        `yaml:"script"`
	AfterScript    stringList        `yaml:"after_script"`
	Only           stringList        `yaml:"only"`
	Except         stringList        `yaml:"except"`
	Needs          stringList        `yaml:"needs"`
	Variables      map[string]string `yaml:"variables"`
	TimeoutMinutes *int              `yaml:"timeout_minutes"`
	AllowFailure   bool              `yaml:"allow_failure"`
	Artifacts      stringList        `yaml:"artifacts"`
}

// yamlDefaults represents the raw `default:` section
type yamlDefaults struct {
	Image          string     `yaml:"image"`
	BeforeScript   stringList `yaml:"before_script"`
	TimeoutMinutes *int       `yaml:"timeout_minutes"`
}

// PipelineParser parses YAML pipeline definition files
type PipelineParser struct{}

// NewPipelineParser creates a new YAML parser
func NewPipelineParser() *PipelineParser {
	return &PipelineParser{}
}

// ParseFile parses a YAML pipeline file into a Pipeline entity.
// An unnamed pipeline takes the file basename as its name.
func (p *PipelineParser) ParseFile(filePath string) (*entities.Pipeline, error) {
	//nolint:gosec // G304: filePath is a pipeline definition path from the repository
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	def, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	if def.Name == "" {
		base := filepath.Base(filePath)
		def.Name = strings.TrimSuffix(strings.TrimSuffix(base, ".yml"), ".yaml")
	}

	return def, nil
}

// Parse parses YAML bytes into a Pipeline entity. Jobs keep their
// declaration order; job-level defaults from the `default:` section are
// applied here so the entity is self-contained.
func (p *PipelineParser) Parse(data []byte) (*entities.Pipeline, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("pipeline definition is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("pipeline definition must be a mapping")
	}

	def := &entities.Pipeline{Version: 1}
	var defaults yamlDefaults
	seen := map[string]bool{}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, fmt.Errorf("line %d: invalid top-level key: %w", keyNode.Line, err)
		}

		var err error
		switch key {
		case "version":
			err = valNode.Decode(&def.Version)
		case "name":
			err = valNode.Decode(&def.Name)
		case "stages":
			err = valNode.Decode(&def.Stages)
		case "variables":
			err = valNode.Decode(&def.Variables)
		case "default":
			err = valNode.Decode(&defaults)
		default:
			if key == "" {
				return nil, fmt.Errorf("line %d: job name must not be empty", keyNode.Line)
			}
			// Lowercase reserved keys never reach here; this catches
			// casing variants like `Default:` that would otherwise
			// silently become jobs.
			if reservedKeys[strings.ToLower(key)] {
				return nil, fmt.Errorf("line %d: job name %q conflicts with reserved key %q", keyNode.Line, key, strings.ToLower(key))
			}
			if seen[key] {
				return nil, fmt.Errorf("line %d: duplicate job %q", keyNode.Line, key)
			}
			seen[key] = true

			var yj yamlJob
			if err := valNode.Decode(&yj); err != nil {
				return nil, fmt.Errorf("job %q: %w", key, err)
			}
			if yj.TimeoutMinutes != nil && *yj.TimeoutMinutes <= 0 {
				return nil, fmt.Errorf("job %q: timeout_minutes must be positive, got %d", key, *yj.TimeoutMinutes)
			}
			def.Jobs = append(def.Jobs, convertJob(key, yj))
		}
		if err != nil {
			return nil, fmt.Errorf("invalid %s section: %w", key, err)
		}
	}

	if len(def.Jobs) == 0 {
		return nil, fmt.Errorf("pipeline must define at least one job")
	}

	if len(def.Stages) == 0 {
		def.Stages = []string{entities.DefaultStage}
	}

	if defaults.TimeoutMinutes != nil && *defaults.TimeoutMinutes <= 0 {
		return nil, fmt.Errorf("default timeout_minutes must be positive, got %d", *defaults.TimeoutMinutes)
	}

	def.Defaults = entities.JobDefaults{
		Image:          defaults.Image,
		BeforeScript:   defaults.BeforeScript,
		TimeoutMinutes: intOrZero(defaults.TimeoutMinutes),
	}

	applyDefaults(def)

	return def, nil
}

func convertJob(name string, yj yamlJob) *entities.Job {
	return &entities.Job{
		Name:           name,
		Stage:          yj.Stage,
		Image:          yj.Image,
		BeforeScript:   yj.BeforeScript,
		Script:         yj.Script,
		AfterScript:    yj.AfterScript,
		Only:           entities.BranchFilter(yj.Only),
		Except:         entities.BranchFilter(yj.Except),
		Needs:          yj.Needs,
		Variables:      yj.Variables,
		TimeoutMinutes: intOrZero(yj.TimeoutMinutes),
		AllowFailure:   yj.AllowFailure,
		Artifacts:      yj.Artifacts,
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

// applyDefaults fills per-job stage, image, and timeout from the pipeline
// defaults. before_script inheritance stays in Job.Steps so the inherited
// part remains distinguishable from the job's own.
func applyDefaults(def *entities.Pipeline) {
	for _, j := range def.Jobs {
		if j.Stage == "" {
			j.Stage = def.Stages[0]
		}
		if j.Image == "" {
			j.Image = def.Defaults.Image
		}
		if j.TimeoutMinutes == 0 {
			j.TimeoutMinutes = def.Defaults.TimeoutMinutes
		}
	}
}
