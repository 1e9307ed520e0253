package rasterbatch

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchFixture(t *testing.T) (parent, out string) {
	t.Helper()
	root := t.TempDir()
	parent = filepath.Join(root, "parent")
	out = filepath.Join(root, "out")
	touch(t, filepath.Join(parent, "A"), "a1.tif", "a2.tif")
	touch(t, filepath.Join(parent, "A", "inner"), "i1.tif", "i2.tif")
	touch(t, filepath.Join(parent, "B"), "b1.tif")
	touch(t, filepath.Join(parent, "C"), "c1.tif", "c2.tif")
	touch(t, parent, "loose.tif")
	return
}

func TestBatchMosaicImmediate(t *testing.T) {
	logs := observeLogs(t)
	r := newFakeRaster()
	r.unreadable["c2.tif"] = true
	parent, out := batchFixture(t)

	report, err := newFakeToolbox(r).BatchMosaic(context.Background(), BatchMosaicJob{ParentDir: parent, OutputDir: out})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(parent, "A")}, report.Processed)
	assert.Equal(t, []string{filepath.Join(out, "A_Mosaic.tif")}, report.Outputs)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, filepath.Join(parent, "B"), report.Skipped[0].Item)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, filepath.Join(parent, "C"), report.Failed[0].Item)

	assert.FileExists(t, filepath.Join(out, "A_Mosaic.tif"))
	assert.NoFileExists(t, filepath.Join(out, "B_Mosaic.tif"))
	assert.NoFileExists(t, filepath.Join(out, "C_Mosaic.tif"))
	assert.NoFileExists(t, filepath.Join(out, "inner_Mosaic.tif"))
	assert.Equal(t, 1, logs.FilterMessage("Toolbox:batch mosaic completed").Len())
	assert.Equal(t, r.opened, r.closed)
}

func TestBatchMosaicRecursive(t *testing.T) {
	r := newFakeRaster()
	parent, out := batchFixture(t)

	report, err := newFakeToolbox(r).BatchMosaic(context.Background(), BatchMosaicJob{
		ParentDir: parent, OutputDir: out, Scan: ScanRecursive, Workers: 2,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(parent, "A"),
		filepath.Join(parent, "A", "inner"),
		filepath.Join(parent, "C"),
	}, report.Processed)
	assert.Len(t, report.Skipped, 1)
	assert.Empty(t, report.Failed)

	warps := r.sortedWarps()
	require.Len(t, warps, 3)
	assert.Equal(t, filepath.Join(out, "A_Mosaic.tif"), warps[0].dst)
	assert.Equal(t, []string{"a1.tif", "a2.tif"}, warps[0].srcs)
	assert.Equal(t, filepath.Join(out, "inner_Mosaic.tif"), warps[2].dst)
	assert.Equal(t, []string{"i1.tif", "i2.tif"}, warps[2].srcs)
}

func TestBatchMosaicPassesMosaicOptions(t *testing.T) {
	r := newFakeRaster()
	r.projs["c2.tif"] = "PROJ_B"
	parent, out := batchFixture(t)

	report, err := newFakeToolbox(r).BatchMosaic(context.Background(), BatchMosaicJob{
		ParentDir: parent,
		OutputDir: out,
		Mosaic:    MosaicJob{CheckProjection: true, InputDir: "ignored", OutputDir: "ignored"},
	})
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Contains(t, report.Failed[0].Error, "PROJ_B")
	assert.Equal(t, []string{filepath.Join(out, "A_Mosaic.tif")}, report.Outputs)
}

func TestBatchMosaicMissingParent(t *testing.T) {
	for _, scan := range []SubfolderScan{ScanImmediate, ScanRecursive} {
		_, err := newFakeToolbox(newFakeRaster()).BatchMosaic(context.Background(), BatchMosaicJob{
			ParentDir: filepath.Join(t.TempDir(), "nope"), OutputDir: t.TempDir(), Scan: scan,
		})
		assert.ErrorIs(t, err, ErrDirectoryNotFound)
	}
}

func TestBatchMosaicRemoteWithoutClient(t *testing.T) {
	_, err := newFakeToolbox(newFakeRaster()).BatchMosaic(context.Background(), BatchMosaicJob{
		ParentDir: "gs://bucket/scenes", OutputDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrNoRemote)
}

func TestBatchMosaicOutputCollision(t *testing.T) {
	r := newFakeRaster()
	root := t.TempDir()
	parent := filepath.Join(root, "parent")
	out := filepath.Join(root, "out")
	touch(t, filepath.Join(parent, "T50SKE"), "20230101_T50SKE_B04.tif", "20230101_T50SKE_B08.tif")
	touch(t, filepath.Join(parent, "T50SKF"), "20230101_T50SKF_B04.tif", "20230101_T50SKF_B08.tif")
	touch(t, filepath.Join(parent, "T50SKG"), "20230102_T50SKG_B04.tif", "20230102_T50SKG_B08.tif")

	report, err := newFakeToolbox(r).BatchMosaic(context.Background(), BatchMosaicJob{
		ParentDir: parent,
		OutputDir: out,
		Workers:   2,
		Mosaic:    MosaicJob{Naming: NamingDateToken},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(parent, "T50SKE"), filepath.Join(parent, "T50SKG")}, report.Processed)
	assert.ElementsMatch(t, []string{
		filepath.Join(out, "20230101_Mosaic.tif"),
		filepath.Join(out, "20230102_Mosaic.tif"),
	}, report.Outputs)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, filepath.Join(parent, "T50SKF"), report.Failed[0].Item)
	assert.Contains(t, report.Failed[0].Error, "collides with "+filepath.Join(parent, "T50SKE"))

	warps := r.sortedWarps()
	require.Len(t, warps, 2)
	assert.Equal(t, []string{"20230101_T50SKE_B04.tif", "20230101_T50SKE_B08.tif"}, warps[0].srcs)
	assert.Empty(t, r.overlap)
	assert.Equal(t, r.opened, r.closed)
}
