package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorageKey(t *testing.T) {
	key, err := StorageKey("report.pdf")
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{16}_report\.pdf$`, key)

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		k, err := StorageKey("report.pdf")
		require.NoError(t, err)
		_, dup := seen[k]
		require.False(t, dup, "collision on %s", k)
		seen[k] = struct{}{}
	}
}

func TestStorageKey_RandomSourceFailure(t *testing.T) {
	orig := randRead
	randRead = func(b []byte) (int, error) { return 0, errors.New("entropy unavailable") }
	defer func() { randRead = orig }()

	_, err := StorageKey("a.txt")
	assert.Error(t, err)
}

func TestBaseName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"/tmp/uploads/report.pdf", "report.pdf"},
		{`C:\Users\ada\report.pdf`, "report.pdf"},
		{"  spaced.txt ", "spaced.txt"},
		{"", "file"},
		{"dir/", "dir"},
		{"/", "file"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, baseName(tt.in), tt.in)
	}
}

func TestParseTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"a", []string{"a"}},
		{" finance , q3 ", []string{"finance", "q3"}},
		{"a,,b, ,", []string{"a", "b"}},
		{"b,a", []string{"b", "a"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseTags(tt.in), tt.in)
	}
}
