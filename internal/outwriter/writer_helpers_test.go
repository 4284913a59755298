package outwriter

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFormatters(t *testing.T) {
	tests := []struct {
		name      string
		precision int
		value     float64
		expected  string
	}{
		{name: "precision 2", precision: 2, value: 8.456, expected: "8.46"},
		{name: "precision 1", precision: 1, value: 8.456, expected: "8.5"},
		{name: "whole number", precision: 2, value: 7, expected: "7.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fmtFloat, intFmt := createFormatters(tt.precision)
			assert.Equal(t, tt.expected, fmtFloat(tt.value))
			assert.Equal(t, "%d", intFmt)
		})
	}
}

func TestFormatRankAndScore(t *testing.T) {
	fmtFloat, _ := createFormatters(2)
	rank := int32(3)
	score := 8.126

	assert.Equal(t, "3", formatRank(&rank))
	assert.Equal(t, "-", formatRank(nil))
	assert.Equal(t, "8.13", formatScore(&score, fmtFloat))
	assert.Equal(t, "-", formatScore(nil, fmtFloat))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, map[string]int{"valid": 3}))
	assert.Equal(t, "{\n  \"valid\": 3\n}\n", buf.String())

	err := writeJSON(&buf, make(chan int))
	assert.ErrorContains(t, err, "failed to encode JSON")
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"title", "note"}, func(w *csv.Writer) error {
		return w.Write([]string{"葬送のフリーレン", "a, b"})
	})
	require.NoError(t, err)
	assert.Equal(t, "title,note\n葬送のフリーレン,\"a, b\"\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"col"}, func(*csv.Writer) error { return assert.AnError })
	assert.Equal(t, assert.AnError, err)
}

func TestWriteWithFile(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		called := false
		err := writeWithFile("", func(io.Writer) error {
			called = true
			return nil
		}, "Wrote test")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "summary.txt")
		err := writeWithFile(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "done")
			return err
		}, "Wrote test")
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "done", string(content))
	})

	t.Run("writer error", func(t *testing.T) {
		err := writeWithFile(filepath.Join(t.TempDir(), "x"), func(io.Writer) error {
			return assert.AnError
		}, "Wrote test")
		assert.Equal(t, assert.AnError, err)
	})

	t.Run("bad path", func(t *testing.T) {
		err := writeWithFile(filepath.Join(t.TempDir(), "missing", "x"), func(io.Writer) error {
			return nil
		}, "Wrote test")
		assert.Error(t, err)
	})
}
