package rasterbatch

import (
	"github.com/wgdzlh/rasterbatch/log"

	"go.uber.org/zap"
)

// 打开栅格，打开失败时返回UnreadableDatasetError
func (t *Toolbox) openRaster(path string) (ds Dataset, err error) {
	ds, err = t.raster.Open(path)
	if err != nil {
		err = &UnreadableDatasetError{Path: path, Err: err}
		return
	}
	if ds == nil {
		err = &UnreadableDatasetError{Path: path}
	}
	return
}

// 读取栅格的坐标系与仿射变换参数
func (t *Toolbox) ReadMetadata(path string) (md Metadata, err error) {
	ds, err := t.openRaster(path)
	if err != nil {
		log.Error(t.logTag+"open raster failed", zap.String("path", path), zap.Error(err))
		return
	}
	defer ds.Close()
	md, err = readMetadata(path, ds)
	if err != nil {
		log.Error(t.logTag+"read geotransform failed", zap.String("path", path), zap.Error(err))
	}
	return
}

func readMetadata(path string, ds Dataset) (md Metadata, err error) {
	md.Path = path
	md.Projection = ds.Projection()
	gt, err := ds.GeoTransform()
	if err != nil {
		err = &UnreadableDatasetError{Path: path, Err: err}
		return
	}
	md.GeoTransform = gt
	return
}
