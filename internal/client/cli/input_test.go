package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("  hello world  \n"))

	got, err := GetSimpleText(reader, "Say something", &out)
	require.NoError(t, err)

	assert.Equal(t, "hello world", got)
	assert.Contains(t, out.String(), "Say something")
}

func TestGetSimpleText_EOFWithPartialLine(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("partial"))

	got, err := GetSimpleText(reader, "p", &out)
	require.NoError(t, err)
	assert.Equal(t, "partial", got)
}

func TestGetPassword_UsesSeam(t *testing.T) {
	orig := readPassword
	defer func() { readPassword = orig }()
	readPassword = func(_ int) ([]byte, error) { return []byte("s3cret"), nil }

	var out bytes.Buffer
	pw, err := GetPassword(&out)
	require.NoError(t, err)

	assert.Equal(t, []byte("s3cret"), pw)
	assert.Contains(t, out.String(), "Enter password")
}

func TestGetYesNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{"explicit yes", "y\n", false, true},
		{"explicit no", "n\n", true, false},
		{"empty takes default true", "\n", true, true},
		{"empty takes default false", "\n", false, false},
		{"garbage means no", "maybe\n", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetYesNo(bufio.NewReader(strings.NewReader(tt.input)), "Sure?", tt.def, &out)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	var out bytes.Buffer

	got, err := GetInt(bufio.NewReader(strings.NewReader("4\n")), "How many?", 0, &out)
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	got, err = GetInt(bufio.NewReader(strings.NewReader("\n")), "How many?", 2, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	_, err = GetInt(bufio.NewReader(strings.NewReader("lots\n")), "How many?", 0, &out)
	require.Error(t, err)
}
