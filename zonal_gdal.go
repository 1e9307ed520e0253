package rasterbatch

import (
	"fmt"
	"math"

	"github.com/wgdzlh/rasterbatch/log"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// 分区统计所用的栅格波段信息
type zonalSource struct {
	band      godal.Band
	gt        GeoTransform
	sizeX     int
	sizeY     int
	nodata    float64
	hasNodata bool
	ref       *godal.SpatialRef
}

func (s *zonalSource) isNodata(v float64) bool {
	if math.IsNaN(v) {
		return true
	}
	return s.hasNodata && v == s.nodata
}

// 外包框对应的像元窗口，已裁剪到栅格范围内；w或h为0表示无交集
func pixelWindow(gt GeoTransform, bnds [4]float64, sizeX, sizeY int) (x0, y0, w, h int) {
	c0 := (bnds[0] - gt.OriginX()) / gt.PixelWidth()
	c1 := (bnds[2] - gt.OriginX()) / gt.PixelWidth()
	r0 := (bnds[1] - gt.OriginY()) / gt.PixelHeight()
	r1 := (bnds[3] - gt.OriginY()) / gt.PixelHeight()
	col0, col1 := int(math.Floor(math.Min(c0, c1))), int(math.Ceil(math.Max(c0, c1)))
	row0, row1 := int(math.Floor(math.Min(r0, r1))), int(math.Ceil(math.Max(r0, r1)))
	if col1 == col0 {
		col1++
	}
	if row1 == row0 {
		row1++
	}
	col0, col1 = max(col0, 0), min(col1, sizeX)
	row0, row1 = max(row0, 0), min(row1, sizeY)
	if col1 <= col0 || row1 <= row0 {
		return
	}
	return col0, row0, col1 - col0, row1 - row0
}

// 对table中每个要素统计rasterPath指定波段的像元值，结果顺序与要素一致
func (g *GdalEngine) ZonalStatistics(table *FeatureTable, rasterPath string, stats []string, opts ZonalOptions) (rows []ZonalRow, err error) {
	bandIdx := opts.Band
	if bandIdx <= 0 {
		bandIdx = DEFAULT_BAND
	}
	ds, err := godal.Open(rasterPath, godal.RasterOnly())
	if err != nil {
		err = &UnreadableDatasetError{Path: rasterPath, Err: err}
		return
	}
	defer ds.Close()
	bands := ds.Bands()
	if bandIdx > len(bands) {
		err = fmt.Errorf("band %d out of range, %s has %d bands", bandIdx, rasterPath, len(bands))
		return
	}
	raw, err := ds.GeoTransform()
	if err != nil {
		return
	}
	gt := GeoTransform(raw)
	if gt[2] != 0 || gt[4] != 0 {
		err = fmt.Errorf("rotated geotransform of %s not supported", rasterPath)
		return
	}
	st := ds.Structure()
	src := &zonalSource{band: bands[bandIdx-1], gt: gt, sizeX: st.SizeX, sizeY: st.SizeY}
	src.nodata, src.hasNodata = src.band.NoData()

	var layerRef *godal.SpatialRef
	if wkt := ds.Projection(); wkt != "" {
		if src.ref, err = g.getSpatialRef(wkt); err != nil {
			return
		}
	}
	if table.SRS != "" {
		if layerRef, err = g.getSpatialRef(table.SRS); err != nil {
			return
		}
	}
	needTrans := src.ref != nil && layerRef != nil && !layerRef.IsSame(src.ref)
	log.Debug(g.logTag+"zonal source ready", zap.String("raster", rasterPath), zap.Int("band", bandIdx),
		zap.Bool("reproject", needTrans), zap.Bool("hasNodata", src.hasNodata))

	rows = make([]ZonalRow, len(table.Features))
	for i, f := range table.Features {
		rows[i].Feature = f
		if rows[i].Stats, err = g.zonalFeature(src, f, layerRef, needTrans, stats, opts.AllTouched); err != nil {
			err = fmt.Errorf("feature %d: %w", f.FID, err)
			rows = nil
			return
		}
	}
	return
}

func (g *GdalEngine) zonalFeature(src *zonalSource, f Feature, layerRef *godal.SpatialRef, needTrans bool,
	stats []string, allTouched bool) (ret map[string]float64, err error) {
	if len(f.Geometry) == 0 {
		ret = aggregate(nil, 0, stats)
		return
	}
	geo, err := godal.NewGeometryFromWKB(f.Geometry, layerRef)
	if err != nil {
		return
	}
	defer geo.Close()
	if needTrans {
		if err = geo.Reproject(src.ref); err != nil {
			log.Error(g.logTag+"geo transform failed", zap.Int64("fid", f.FID), zap.Error(err))
			return
		}
	}
	bnds, err := geo.Bounds()
	if err != nil {
		return
	}
	x0, y0, w, h := pixelWindow(src.gt, bnds, src.sizeX, src.sizeY)
	if w == 0 || h == 0 {
		ret = aggregate(nil, 0, stats)
		return
	}
	pixels := make([]float64, w*h)
	if err = src.band.Read(x0, y0, pixels, w, h); err != nil {
		return
	}
	mask, err := g.burnMask(geo, src.gt, x0, y0, w, h, allTouched)
	if err != nil {
		return
	}
	var (
		values    = make([]float64, 0, len(pixels))
		nodataCnt int
	)
	for i, v := range pixels {
		if mask[i] == 0 {
			continue
		}
		if src.isNodata(v) {
			nodataCnt++
			continue
		}
		values = append(values, v)
	}
	ret = aggregate(values, nodataCnt, stats)
	return
}

// 在窗口大小的内存栅格上烧录几何，返回0/1掩膜
func (g *GdalEngine) burnMask(geo *godal.Geometry, gt GeoTransform, x0, y0, w, h int, allTouched bool) (mask []byte, err error) {
	mem, err := godal.Create(godal.Memory, "", 1, godal.Byte, w, h)
	if err != nil {
		return
	}
	defer mem.Close()
	wgt := [6]float64{
		gt.OriginX() + float64(x0)*gt.PixelWidth(), gt.PixelWidth(), 0,
		gt.OriginY() + float64(y0)*gt.PixelHeight(), 0, gt.PixelHeight(),
	}
	if err = mem.SetGeoTransform(wgt); err != nil {
		return
	}
	ropts := []godal.RasterizeGeometryOption{godal.Values(1)}
	if allTouched {
		ropts = append(ropts, godal.AllTouched())
	}
	if err = mem.RasterizeGeometry(geo, ropts...); err != nil {
		log.Error(g.logTag+"rasterize geometry failed", zap.Error(err))
		return
	}
	mask = make([]byte, w*h)
	err = mem.Bands()[0].Read(0, 0, mask, w, h)
	return
}
