package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/storesync/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add sync states", "add_sync_states"},
		{"Add-Sync-States", "add_sync_states"},
		{"ADD_SYNC_STATES", "add_sync_states"},
		{"add__sync__states", "add_sync_states"},
		{"Add Media 123", "add_media_123"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "add media table", "Media of products and departments")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "000001_add_media_table.up.sql", filepath.Base(first.UpPath))
	assert.Equal(t, "000001_add_media_table.down.sql", filepath.Base(first.DownPath))

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "-- add media table"))
	assert.Contains(t, string(content), "Media of products and departments")

	second, err := CreateMigration(dir, "add index", "")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)

	_, err = CreateMigration(dir, "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		list, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "missing")))
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ignores unrelated files and sorts", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"000010_b.up.sql", "000002_a.up.sql", "000002_a.down.sql", "README.md", "x.up.sql"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
		}

		list, err := ListMigrations(os.DirFS(dir))
		require.NoError(t, err)
		assert.Equal(t, []Migration{{Version: 2, Name: "a"}, {Version: 10, Name: "b"}}, list)
	})

	t.Run("embedded schema", func(t *testing.T) {
		list, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "catalog", list[0].Name)
		assert.Equal(t, "orders_and_sync_state", list[1].Name)
	})
}
