package rasterbatch

import (
	"fmt"
	"sync"

	"github.com/wgdzlh/rasterbatch/log"

	"github.com/airbusgeo/godal"
	"github.com/alessio/shellescape"
	"go.uber.org/zap"
)

// 基于GDAL(godal)的栅格/矢量处理引擎
type GdalEngine struct {
	refMap map[string]*godal.SpatialRef
	rLock  sync.Mutex
	tmpDir string
	logTag string
}

type gdalDataset struct {
	ds   *godal.Dataset
	path string
}

func (d *gdalDataset) Projection() string {
	return d.ds.Projection()
}

func (d *gdalDataset) GeoTransform() (gt GeoTransform, err error) {
	raw, err := d.ds.GeoTransform()
	gt = GeoTransform(raw)
	return
}

func (d *gdalDataset) Close() (err error) {
	if d.ds == nil {
		return
	}
	err = d.ds.Close()
	d.ds = nil
	return
}

var registerOnce sync.Once

// 初始化引擎，首次调用时注册全部GDAL驱动
func NewGdalEngine(tmpDir string) *GdalEngine {
	registerOnce.Do(godal.RegisterAll)
	return &GdalEngine{
		refMap: map[string]*godal.SpatialRef{},
		tmpDir: tmpDir,
		logTag: "GdalEngine:",
	}
}

// 只读打开栅格
func (g *GdalEngine) Open(path string) (Dataset, error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		log.Debug(g.logTag+"open raster failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return &gdalDataset{ds: ds, path: path}, nil
}

// 调用gdalwarp将srcs写入dst
func (g *GdalEngine) Warp(dst string, srcs []Dataset, opts WarpOptions) (err error) {
	if len(srcs) == 0 {
		err = fmt.Errorf("warp %s: no source dataset", dst)
		return
	}
	var (
		dss   = make([]*godal.Dataset, len(srcs))
		names = make([]string, len(srcs))
	)
	for i, s := range srcs {
		gd, ok := s.(*gdalDataset)
		if !ok || gd.ds == nil {
			err = fmt.Errorf("warp %s: source %d is not an open gdal dataset", dst, i)
			return
		}
		dss[i] = gd.ds
		names[i] = gd.path
	}
	switches := opts.Switches()
	if ce := log.Logger().Check(zap.DebugLevel, g.logTag+"run gdalwarp"); ce != nil {
		args := append(append(append([]string{"gdalwarp"}, switches...), names...), dst)
		ce.Write(zap.String("cmd", shellescape.QuoteCommand(args)))
	}
	ods, err := godal.Warp(dst, dss, switches, g.warpOpts()...)
	if err != nil {
		log.Error(g.logTag+"gdalwarp failed", zap.String("dst", dst), zap.Error(err))
		return
	}
	if err = ods.Close(); err != nil {
		log.Error(g.logTag+"close warp output failed", zap.String("dst", dst), zap.Error(err))
	}
	return
}

// 获取WKT对应的坐标系（缓存复用，故无需回收）
func (g *GdalEngine) getSpatialRef(wkt string) (ref *godal.SpatialRef, err error) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[wkt]
	if ok {
		return
	}
	if ref, err = godal.NewSpatialRefFromWKT(wkt); err != nil {
		log.Error(g.logTag+"parse spatial ref failed", zap.Error(err))
		return
	}
	g.refMap[wkt] = ref
	return
}

// GDAL临时文件写入tmpDir
func (g *GdalEngine) tmpConfig() []string {
	if g.tmpDir == "" {
		return nil
	}
	return []string{CPL_TMPDIR_CONFIG + g.tmpDir}
}

func (g *GdalEngine) warpOpts() (opts []godal.DatasetWarpOption) {
	if cfg := g.tmpConfig(); cfg != nil {
		opts = append(opts, godal.ConfigOption(cfg...))
	}
	return
}
