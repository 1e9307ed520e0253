package rasterbatch

// 已打开的栅格数据集，用完须Close
type Dataset interface {
	Projection() string
	GeoTransform() (GeoTransform, error)
	Close() error
}

// 栅格处理能力：打开数据集、gdalwarp
type RasterEngine interface {
	Open(path string) (Dataset, error)
	Warp(dst string, srcs []Dataset, opts WarpOptions) error
}

// 矢量处理能力：读取图层、分区统计、写出结果表
type VectorEngine interface {
	ReadLayer(path string) (*FeatureTable, error)
	ZonalStatistics(table *FeatureTable, rasterPath string, stats []string, opts ZonalOptions) ([]ZonalRow, error)
	WriteTable(table *ZonalTable, path string) error
}

type ZonalOptions struct {
	Band       int
	AllTouched bool
}

func closeAll(gc []Dataset) {
	for _, v := range gc {
		if v != nil {
			v.Close()
		}
	}
}
