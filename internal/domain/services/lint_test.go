package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

func imagedJob(name, stage string) *entities.Job {
	j := job(name, stage)
	j.Image = "python:3.7"
	return j
}

func TestLinter_Lint_CleanDefinition(t *testing.T) {
	def := &entities.Pipeline{
		Name:   "ci",
		Stages: []string{"test"},
		Jobs: []*entities.Job{
			imagedJob("py36", "test"),
			imagedJob("py37", "test"),
		},
	}

	report := NewLinter().Lint(def)

	assert.False(t, report.HasErrors())
	assert.Empty(t, report.Findings)
}

func TestLinter_Lint_UndeclaredStage(t *testing.T) {
	def := &entities.Pipeline{
		Name:   "ci",
		Stages: []string{"test"},
		Jobs:   []*entities.Job{imagedJob("a", "deploy")},
	}

	report := NewLinter().Lint(def)

	require.True(t, report.HasErrors())
	assert.Equal(t, RuleStageUndeclared, report.Errors()[0].Rule)
	assert.Equal(t, "a", report.Errors()[0].Job)
}

func TestLinter_Lint_DuplicateStage(t *testing.T) {
	def := &entities.Pipeline{
		Name:   "ci",
		Stages: []string{"test", "test"},
		Jobs:   []*entities.Job{imagedJob("a", "test")},
	}

	report := NewLinter().Lint(def)

	assert.True(t, hasRule(report, RuleStageDuplicate))
}

func TestLinter_Lint_MissingScript(t *testing.T) {
	j := imagedJob("a", "test")
	j.Script = nil
	def := &entities.Pipeline{Name: "ci", Stages: []string{"test"}, Jobs: []*entities.Job{j}}

	report := NewLinter().Lint(def)

	assert.True(t, hasRule(report, RuleScriptMissing))
}

func TestLinter_Lint_Needs(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		def := &entities.Pipeline{
			Name:   "ci",
			Stages: []string{"test"},
			Jobs:   []*entities.Job{imagedJob("a", "test")},
		}
		def.Jobs[0].Needs = []string{"ghost"}

		report := NewLinter().Lint(def)

		assert.True(t, hasRule(report, RuleNeedsUnknown))
		// Cycle rule must not also fire for the same root cause
		assert.False(t, hasRule(report, RuleNeedsCycle))
	})

	t.Run("later stage", func(t *testing.T) {
		def := &entities.Pipeline{
			Name:   "ci",
			Stages: []string{"build", "deploy"},
			Jobs: []*entities.Job{
				imagedJob("compile", "build"),
				imagedJob("publish", "deploy"),
			},
		}
		def.Jobs[0].Needs = []string{"publish"}

		report := NewLinter().Lint(def)

		assert.True(t, hasRule(report, RuleNeedsLaterStage))
	})

	t.Run("cycle", func(t *testing.T) {
		def := &entities.Pipeline{
			Name:   "ci",
			Stages: []string{"test"},
			Jobs: []*entities.Job{
				imagedJob("a", "test"),
				imagedJob("b", "test"),
			},
		}
		def.Jobs[0].Needs = []string{"b"}
		def.Jobs[1].Needs = []string{"a"}

		report := NewLinter().Lint(def)

		assert.True(t, hasRule(report, RuleNeedsCycle))
	})
}

func TestLinter_Lint_BranchRules(t *testing.T) {
	t.Run("invalid pattern", func(t *testing.T) {
		j := imagedJob("a", "test")
		j.Only = entities.BranchFilter{"/[broken/"}
		def := &entities.Pipeline{Name: "ci", Stages: []string{"test"}, Jobs: []*entities.Job{j}}

		report := NewLinter().Lint(def)

		assert.True(t, hasRule(report, RuleBranchPattern))
	})

	t.Run("only fully shadowed by except", func(t *testing.T) {
		j := imagedJob("a", "test")
		j.Only = entities.BranchFilter{"master"}
		j.Except = entities.BranchFilter{"master"}
		def := &entities.Pipeline{Name: "ci", Stages: []string{"test"}, Jobs: []*entities.Job{j}}

		report := NewLinter().Lint(def)

		assert.False(t, report.HasErrors())
		assert.True(t, hasRule(report, RuleBranchNever))
	})
}

func TestLinter_Lint_Warnings(t *testing.T) {
	j := job("a", "test") // no image
	def := &entities.Pipeline{
		Name:   "ci",
		Stages: []string{"test", "deploy"}, // deploy has no jobs
		Jobs:   []*entities.Job{j},
	}

	report := NewLinter().Lint(def)

	assert.False(t, report.HasErrors())
	assert.True(t, hasRule(report, RuleStageEmpty))
	assert.True(t, hasRule(report, RuleImageMissing))
	assert.Len(t, report.Warnings(), 2)
}

func TestLinter_Lint_NegativeTimeout(t *testing.T) {
	j := imagedJob("a", "test")
	j.TimeoutMinutes = -5
	def := &entities.Pipeline{Name: "ci", Stages: []string{"test"}, Jobs: []*entities.Job{j}}

	report := NewLinter().Lint(def)

	assert.True(t, hasRule(report, RuleTimeoutInvalid))
}

func hasRule(report *entities.LintReport, rule string) bool {
	for _, f := range report.Findings {
		if f.Rule == rule {
			return true
		}
	}
	return false
}
