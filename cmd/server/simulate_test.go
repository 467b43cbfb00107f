package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWobblyPolygon(t *testing.T) {
	points := wobblyPolygon(polygonStroke{X: 100, Y: 100, Radius: 50, Sides: 6, Wobble: 0.5})
	require.Len(t, points, 6*8+1)
	assert.Equal(t, points[0], points[len(points)-1])
	assert.InDelta(t, 150, points[0].X, 1e-9)

	assert.Empty(t, wobblyPolygon(polygonStroke{Sides: 2}))
}

func TestSimulate(t *testing.T) {
	t.Setenv("SMARTCLASS_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	scriptFile := filepath.Join(t.TempDir(), "lecture.yaml")
	require.NoError(t, os.WriteFile(scriptFile, []byte(`
steps:
  - type: speech_support
    payload: {supported: true}
  - type: start_listening
  - type: utterance
    payload: {text: "The benzene molecule has six carbon atoms", confidence: 0.9}
`), 0o644))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"simulate", "--script", scriptFile, "--only", "suggestions_update"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		assert.Contains(t, line, `"type":"suggestions_update"`)
	}
	assert.Contains(t, lines[len(lines)-1], "benzene-structure")

	rootCmd.SetArgs([]string{"simulate", "--script", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, rootCmd.Execute(), "read script")
}
