package rasterbatch

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/wgdzlh/rasterbatch/log"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testProj = "PROJ_A"

var testGT = GeoTransform{500000, 10, 0, 4000000, 0, -10}

type fakeWarp struct {
	dst  string
	srcs []string
	opts WarpOptions
}

// 按文件名模拟的栅格引擎，Warp只创建空文件
type fakeRaster struct {
	mu         sync.Mutex
	projs      map[string]string
	gts        map[string]GeoTransform
	unreadable map[string]bool
	failWarp   map[string]bool
	warps      []fakeWarp
	active     map[string]int
	overlap    map[string]bool // 同一输出路径上出现过并发Warp
	opened     int
	closed     int
}

type fakeDataset struct {
	eng    *fakeRaster
	path   string
	proj   string
	gt     GeoTransform
	isDone bool
}

func newFakeRaster() *fakeRaster {
	return &fakeRaster{
		projs:      map[string]string{},
		gts:        map[string]GeoTransform{},
		unreadable: map[string]bool{},
		failWarp:   map[string]bool{},
		active:     map[string]int{},
		overlap:    map[string]bool{},
	}
}

func (f *fakeRaster) Open(path string) (Dataset, error) {
	name := filepath.Base(path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreadable[name] {
		return nil, errors.New("not recognized as a supported file format")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	ds := &fakeDataset{eng: f, path: path, proj: testProj, gt: testGT}
	if p, ok := f.projs[name]; ok {
		ds.proj = p
	}
	if gt, ok := f.gts[name]; ok {
		ds.gt = gt
	}
	f.opened++
	return ds, nil
}

func (f *fakeRaster) Warp(dst string, srcs []Dataset, opts WarpOptions) error {
	w := fakeWarp{dst: dst, opts: opts}
	for _, s := range srcs {
		w.srcs = append(w.srcs, filepath.Base(s.(*fakeDataset).path))
	}
	f.mu.Lock()
	f.warps = append(f.warps, w)
	fail := f.failWarp[filepath.Base(dst)]
	f.active[dst]++
	if f.active[dst] > 1 {
		f.overlap[dst] = true
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active[dst]--
		f.mu.Unlock()
	}()
	if fail {
		return errors.New("gdalwarp: cannot write output")
	}
	time.Sleep(5 * time.Millisecond)
	return os.WriteFile(dst, nil, 0o644)
}

func (f *fakeRaster) sortedWarps() []fakeWarp {
	f.mu.Lock()
	defer f.mu.Unlock()
	ret := append([]fakeWarp(nil), f.warps...)
	sort.Slice(ret, func(i, j int) bool { return ret[i].dst < ret[j].dst })
	return ret
}

func (d *fakeDataset) Projection() string { return d.proj }

func (d *fakeDataset) GeoTransform() (GeoTransform, error) { return d.gt, nil }

func (d *fakeDataset) Close() error {
	if d.isDone {
		return nil
	}
	d.isDone = true
	d.eng.mu.Lock()
	d.eng.closed++
	d.eng.mu.Unlock()
	return nil
}

func newFakeToolbox(r *fakeRaster) *Toolbox {
	return NewToolbox().WithRaster(r)
}

// 创建空文件
func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
}

// 将全局logger替换为observer，测试结束后恢复
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(log.Replace(zap.New(core)))
	return logs
}
