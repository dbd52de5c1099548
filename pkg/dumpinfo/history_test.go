package dumpinfo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/faultline/pkg/artifact"
)

func TestHistoryKeepsNewestLines(t *testing.T) {
	h := NewHistory(3)
	for _, l := range []string{"one\n", "two\n", "three\n", "four\n"} {
		_, err := h.Write([]byte(l))
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"two", "three", "four"}, h.Lines())
}

func TestHistoryJoinsPartialWrites(t *testing.T) {
	h := NewHistory(4)
	_, _ = h.Write([]byte("hel"))
	_, _ = h.Write([]byte("lo\nwor"))
	assert.Equal(t, []string{"hello"}, h.Lines())
	_, _ = h.Write([]byte("ld\n"))
	assert.Equal(t, []string{"hello", "world"}, h.Lines())
}

func TestHistoryTruncatesLongLines(t *testing.T) {
	h := NewHistory(1)
	_, _ = h.Write([]byte(strings.Repeat("x", 3*maxLineLen) + "\n"))
	require.Len(t, h.Lines(), 1)
	assert.Len(t, h.Lines()[0], maxLineLen)
}

func TestHistoryDefaultSize(t *testing.T) {
	h := NewHistory(0)
	assert.Len(t, h.lines, DefaultHistoryLines)
}

func TestWriteRecentLog(t *testing.T) {
	h := NewHistory(8)
	_, _ = h.Write([]byte("12:00:00 INF first\n12:00:01 WRN second\n"))

	var buf bytes.Buffer
	require.NoError(t, h.WriteRecentLog(&buf))
	assert.Equal(t, artifact.LogSection+"12:00:00 INF first\n12:00:01 WRN second\n\n", buf.String())
}

func TestWriteRecentLogWhileBusy(t *testing.T) {
	h := NewHistory(8)
	_, _ = h.Write([]byte("kept\n"))

	h.mu.Lock()
	var buf bytes.Buffer
	err := h.WriteRecentLog(&buf)
	h.mu.Unlock()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "log history busy")
	assert.NotContains(t, buf.String(), "kept")
}
