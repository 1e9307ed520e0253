package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkfiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	mkfiles(t, dir, "b.tif", "A.TIF", "c.img", "d.txt")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "e.tif"), 0o755))

	names, err := ListFiles(dir, ".tif", ".img")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.TIF", "b.tif", "c.img"}, names)

	names, err = ListFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = ListFiles(filepath.Join(dir, "missing"), ".tif")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestListSubDirs(t *testing.T) {
	dir := t.TempDir()
	mkfiles(t, filepath.Join(dir, "b", "deep"), "x.tif")
	mkfiles(t, filepath.Join(dir, "a"), "y.tif")
	mkfiles(t, dir, "z.tif")

	dirs, err := ListSubDirs(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a"), filepath.Join(dir, "b")}, dirs)

	dirs, err = ListSubDirs(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a"), filepath.Join(dir, "b"), filepath.Join(dir, "b", "deep")}, dirs)

	for _, recursive := range []bool{false, true} {
		_, err = ListSubDirs(filepath.Join(dir, "missing"), recursive)
		assert.ErrorIs(t, err, fs.ErrNotExist)
	}
}

func TestShpHelpers(t *testing.T) {
	dir := t.TempDir()
	shp := filepath.Join(dir, "zones.shp")
	mkfiles(t, dir, "zones.shp", "zones.shx", "zones.dbf", "zones.prj", "other.shp")

	enc, utf8 := GetShpEncoding(shp)
	assert.Empty(t, enc)
	assert.False(t, utf8)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "zones.cpg"), []byte("utf-8\n"), 0o644))
	enc, utf8 = GetShpEncoding(shp)
	assert.Equal(t, UTF_8, enc)
	assert.True(t, utf8)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "zones.cpg"), []byte("GBK"), 0o644))
	_, utf8 = GetShpEncoding(shp)
	assert.False(t, utf8)

	require.NoError(t, RemoveShapefile(shp))
	names, err := ListFiles(dir, ".shp", ".shx", ".dbf", ".prj", ".cpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"other.shp"}, names)
	assert.NoError(t, RemoveShapefile(shp))

	assert.Equal(t, "zones", GetFilenameWithoutExt(shp))
}
