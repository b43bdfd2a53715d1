package cli

import (
	"bufio"
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
	assert.Equal(t, "Name?\n> ", out.String())
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	require.NoError(t, err)
	assert.Equal(t, "lastline", got)

	_, err = GetSimpleText(rdr(""), "Name?", &out)
	assert.Error(t, err)
}

func TestGetMultiline(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"double enter", "a\nb\n\n\n", "a\nb"},
		{"windows newlines", "a\r\nb\r\n\r\n", "a\nb"},
		{"immediate blank line", "\n", ""},
		{"EOF without blank line", "a\nb", "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetMultiline(rdr(tt.input), "Notes", &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseID(t *testing.T) {
	id, err := parseID([]string{"42"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = parseID([]string{"#7", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	for _, bad := range [][]string{nil, {"x"}, {"0"}, {"-3"}} {
		_, err := parseID(bad)
		assert.ErrorIs(t, err, common.ErrValidation, "%v", bad)
	}

	ids, err := parseIDs([]string{"1", "#2"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	ids, err = parseIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestIsInteractive(t *testing.T) {
	old := isTerminal
	t.Cleanup(func() { isTerminal = old })

	isTerminal = func(int) bool { return true }
	assert.True(t, isInteractive(os.Stdin))
	assert.False(t, isInteractive(strings.NewReader("")))

	isTerminal = func(int) bool { return false }
	assert.False(t, isInteractive(os.Stdin))
}
