package yaml

import (
	"testing"
)

// FuzzPipelineParser tests the YAML parser against random/malformed inputs
// to detect crashes, panics, or unexpected behavior.
//
// Run with: go test -fuzz=FuzzPipelineParser -fuzztime=30s
func FuzzPipelineParser(f *testing.F) {
	// Seed corpus with valid definitions
	f.Add([]byte(`test:
  script:
    - pytest
`))

	f.Add([]byte(pythonPipeline))

	f.Add([]byte(`stages:
  - build
  - test

variables:
  CC: mpicc

build:ext:
  stage: build
  image: python:3.7
  script: python setup.py build_ext --inplace
  artifacts:
    - "*.so"

test:unit:
  stage: test
  needs: [build:ext]
  script:
    - pytest
  only:
    - master
    - /release-.*/
`))

	f.Add([]byte(``))
	f.Add([]byte(`{}`))
	f.Add([]byte("\xff\xfe"))
	f.Add([]byte("\"\":\n  script: pytest\n"))
	f.Add([]byte("Default:\n  script: pytest\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		parser := NewPipelineParser()

		// Must never panic; errors are fine
		def, err := parser.Parse(data)

		// If parsing succeeded, the definition must be internally coherent
		if err == nil {
			if len(def.Jobs) == 0 {
				t.Error("parsed definition has no jobs but no error was returned")
			}
			if len(def.Stages) == 0 {
				t.Error("parsed definition has no stages but no error was returned")
			}
			for _, j := range def.Jobs {
				if j.Name == "" {
					t.Error("parsed job has empty name")
				}
				if j.Stage == "" {
					t.Error("parsed job has empty stage after defaulting")
				}
			}
		}
	})
}
