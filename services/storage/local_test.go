package storagesvc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/elimu/core"
)

func TestLocalStore_Put(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(&core.Config{Upload: core.UploadConfig{Dir: dir, URLPrefix: "/uploads"}})
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "abc.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/abc.txt", url)

	data, err := os.ReadFile(filepath.Join(dir, "abc.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	for _, key := range []string{"", "../x", ".hidden", `a\b`} {
		_, err := store.Put(context.Background(), key, "", strings.NewReader("x"))
		assert.Error(t, err, key)
	}
}
