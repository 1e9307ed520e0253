package rasterbatch

const (
	FORMAT_GTIFF = "GTiff"
	FORMAT_HFA   = "HFA"
	FORMAT_ENVI  = "ENVI"

	FILE_EXT_TIF     = ".tif"
	FILE_EXT_TIFF    = ".tiff"
	FILE_EXT_IMG     = ".img"
	FILE_EXT_DAT     = ".dat"
	FILE_EXT_HDF     = ".hdf"
	FILE_EXT_SHP     = ".shp"
	FILE_EXT_GPKG    = ".gpkg"
	FILE_EXT_JSON    = ".json"
	FILE_EXT_GEOJSON = ".geojson"

	SHP_DRIVER_NAME     = "ESRI Shapefile"
	GPKG_DRIVER_NAME    = "GPKG"
	GEOJSON_DRIVER_NAME = "GeoJSON"

	REPROJECTED_PREFIX = "reprojected_"
	MOSAIC_SUFFIX      = "_Mosaic"
	DATE_TOKEN_SEP     = "_"

	RESAMPLE_NEAREST = "near"

	DEFAULT_BAND = 1

	MEM_LAYER_NAME    = "zonal"
	CPL_TMPDIR_CONFIG = "CPL_TMPDIR="

	OO_RAW_ENCODING = "ENCODING=" // 清空编码，shp驱动原样返回属性字节
	ENCODING_OPTION = "ENCODING=UTF-8"

	REMOTE_PREFIX = "gs://"
)

var (
	DefaultInputFormats  = []string{FILE_EXT_TIF, FILE_EXT_TIFF, FILE_EXT_IMG, FILE_EXT_DAT, FILE_EXT_HDF}
	DefaultMosaicFormats = []string{FILE_EXT_TIF, FILE_EXT_TIFF}
	DefaultZonalStats    = []string{StatCount, StatMin, StatMax, StatMean}

	// 输出格式 -> 文件扩展名，未登记的格式统一输出.tif
	formatExts = map[string]string{
		FORMAT_GTIFF: FILE_EXT_TIF,
		FORMAT_HFA:   FILE_EXT_IMG,
		FORMAT_ENVI:  FILE_EXT_DAT,
	}

	// 输出矢量扩展名 -> OGR驱动
	vectorDrivers = map[string]string{
		FILE_EXT_SHP:     SHP_DRIVER_NAME,
		FILE_EXT_GPKG:    GPKG_DRIVER_NAME,
		FILE_EXT_JSON:    GEOJSON_DRIVER_NAME,
		FILE_EXT_GEOJSON: GEOJSON_DRIVER_NAME,
	}

	// 由编排逻辑自行设置的gdalwarp参数，不允许通过额外参数覆盖
	reservedWarpSwitches = map[string]struct{}{
		"-t_srs":     {},
		"-s_srs":     {},
		"-tr":        {},
		"-of":        {},
		"-r":         {},
		"-overwrite": {},
	}
)

// 输出格式对应的文件扩展名
func FormatExt(format string) string {
	if ext, ok := formatExts[format]; ok {
		return ext
	}
	return FILE_EXT_TIF
}
