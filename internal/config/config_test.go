package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]string{"convert", "level.json"})
	require.NoError(t, err)

	assert.Equal(t, Convert, c.Command)
	assert.Equal(t, "level.json", c.Source)
	assert.Equal(t, 1.0, c.Rate)
	assert.Equal(t, 1500*time.Millisecond, c.Delay)
	assert.Equal(t, []rune("sdf jkl"), c.KeyRunes())
	assert.Equal(t, 3, c.KeyLane(' '))
	assert.Equal(t, -1, c.KeyLane('x'))

	require.Len(t, c.Judgements, 5)
	assert.Equal(t, "Perfect", c.Judgements[0].Name)
	assert.Equal(t, 50*time.Millisecond, c.Judgements[0].Time)
	assert.Equal(t, 133*time.Millisecond, c.Judgements[3].Time)
	assert.Equal(t, "Miss", c.Judgements[4].Name)
}

func TestParseFlags(t *testing.T) {
	dir := t.TempDir()
	c, err := Parse([]string{
		"--rate", "1.5", "-o", "-20ms", "--mirror",
		"--window", "10ms", "--window", "20ms", "--window", "30ms", "--window", "40ms",
		"play", dir,
	})
	require.NoError(t, err)

	assert.Equal(t, Play, c.Command)
	assert.Equal(t, dir, c.Directory)
	assert.Equal(t, 1.5, c.Rate)
	assert.Equal(t, -20*time.Millisecond, c.Offset)
	assert.True(t, c.Mirror)
	assert.Equal(t, 40*time.Millisecond, c.Judgements[3].Time)
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bandori.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rate: 0.5
note-duration: 800ms
keys: "asd fgh"
base: http://localhost:8080
`), 0o644))

	c, err := Parse([]string{"--config", path, "--rate", "2", "fetch", "level"})
	require.NoError(t, err)

	assert.Equal(t, Fetch, c.Command)
	assert.Equal(t, "level", c.Name)
	assert.Equal(t, 2.0, c.Rate, "flags win over the file")
	assert.Equal(t, 800*time.Millisecond, c.NoteDuration)
	assert.Equal(t, "asd fgh", c.Keys)
	assert.Equal(t, "http://localhost:8080", c.Base)
	assert.Len(t, c.Judgements, 5, "unset file values keep their defaults")
}

func TestParseErrors(t *testing.T) {
	tests := map[string][]string{
		"missing command":   {},
		"missing source":    {"convert"},
		"missing directory": {"play", "/does/not/exist"},
		"too few keys":      {"--keys", "abc", "convert", "x"},
		"too few windows":   {"--window", "10ms", "convert", "x"},
		"shrinking windows": {"--window", "40ms", "--window", "30ms", "--window", "50ms", "--window", "60ms", "convert", "x"},
		"missing file":      {"--config=/does/not/exist.yaml", "convert", "x"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(args)
			assert.Error(t, err)
		})
	}
}
