package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRunText(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Led growth initiatives and funnel optimization.")
	jd := writeFile(t, dir, "jd.txt", "We need strong growth and funnel optimization skills.")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-resume", resume, "-jd", jd}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	out := stdout.String()
	assert.Contains(t, out, "Original keyword match: 50.0 (3 of 6 job keywords)")
	assert.Contains(t, out, "missing: need, skills, strong")
	assert.Contains(t, out, "Keyword Match")
	assert.Contains(t, out, "Improvement:")
	assert.NotContains(t, out, "Tailored keyword match")
}

func TestRunJSONWithTailored(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Led growth initiatives and funnel optimization.")
	tailored := writeFile(t, dir, "tailored.md", "Strong growth skills. Led funnel optimization.")
	jd := writeFile(t, dir, "jd.txt", "We need strong growth and funnel optimization skills.")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-resume", resume, "-jd", jd, "-tailored", tailored, "-format", "json"},
		&stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var got struct {
		ResumeName string `json:"resume_name"`
		Original   struct {
			Score float64 `json:"score"`
		} `json:"original"`
		Tailored *struct {
			Score   float64  `json:"score"`
			Missing []string `json:"missing"`
		} `json:"tailored"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
	assert.Equal(t, "resume.txt", got.ResumeName)
	assert.Equal(t, 50.0, got.Original.Score)
	require.NotNil(t, got.Tailored)
	assert.InDelta(t, 500.0/6, got.Tailored.Score, 1e-9)
	assert.Equal(t, []string{"need"}, got.Tailored.Missing)
}

func TestRunDegenerateJobDescription(t *testing.T) {
	dir := t.TempDir()
	resume := writeFile(t, dir, "resume.txt", "Led growth initiatives.")
	jd := writeFile(t, dir, "jd.txt", "the and of 2024")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-resume", resume, "-jd", jd}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Original keyword match: 0.0")
	assert.Contains(t, stdout.String(), "job description has no keywords")
}

func TestRunUsageErrors(t *testing.T) {
	dir := t.TempDir()
	jd := writeFile(t, dir, "jd.txt", "growth")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing resume", []string{"-jd", jd}, 2},
		{"bad format", []string{"-resume", jd, "-jd", jd, "-format", "xml"}, 2},
		{"unknown flag", []string{"-verbose"}, 2},
		{"unreadable file", []string{"-resume", filepath.Join(dir, "nope.txt"), "-jd", jd}, 1},
		{"unsupported document", []string{"-resume", writeFile(t, dir, "img.png", "\x89PNG\r\n\x1a\n\x00\x00"), "-jd", jd}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Equal(t, tt.want, run(context.Background(), tt.args, &stdout, &stderr))
			assert.Empty(t, stdout.String())
			assert.NotEmpty(t, stderr.String())
		})
	}
}
