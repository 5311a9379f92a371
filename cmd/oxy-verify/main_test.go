package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunOK(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-manifest", "testdata/ok.yaml", "-workers", "2"}, &stdout, &stderr)

	assert.Equal(t, exitOK, code, stderr.String())
	assert.Contains(t, stdout.String(), "smoke: 2 geometries, 3 instances, 17 vertices, 20 triangles")
	assert.Contains(t, stdout.String(), "OK")
}

func TestRunStructuralViolation(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-manifest", "testdata/bad_index.yaml"}, &stdout, &stderr)

	assert.Equal(t, exitViolation, code)
	assert.Contains(t, stdout.String(), "broken: FAIL")
	assert.Contains(t, stdout.String(), "index out of range")
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing manifest flag", nil},
		{"unknown flag", []string{"-frobnicate"}},
		{"missing file", []string{"-manifest", "testdata/nope.yaml"}},
		{"bad log level", []string{"-manifest", "testdata/ok.yaml", "-log-level", "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, exitError, run(tt.args, &stdout, &stderr))
			assert.NotEmpty(t, stderr.String())
		})
	}
}
