package rasterbatch

import (
	"fmt"
	"strings"
	"sync"
)

type GdalGeo = []byte

// 仿射变换六参数：原点x、像元宽、行旋转、原点y、列旋转、像元高（通常为负）
type GeoTransform [6]float64

func (gt GeoTransform) OriginX() float64     { return gt[0] }
func (gt GeoTransform) PixelWidth() float64  { return gt[1] }
func (gt GeoTransform) OriginY() float64     { return gt[3] }
func (gt GeoTransform) PixelHeight() float64 { return gt[5] }

// 影像元数据
type Metadata struct {
	Path         string
	Projection   string
	GeoTransform GeoTransform
}

// 镶嵌结果命名方式
type NamingPolicy int

const (
	NamingFolderName NamingPolicy = iota // <目录名>_Mosaic.tif
	NamingDateToken                      // <首个文件名中第一个"_"之前的部分>_Mosaic.tif
)

func (p NamingPolicy) String() string {
	switch p {
	case NamingDateToken:
		return "date"
	default:
		return "folder"
	}
}

func ParseNamingPolicy(s string) (p NamingPolicy, err error) {
	switch strings.ToLower(s) {
	case "", "folder":
		p = NamingFolderName
	case "date":
		p = NamingDateToken
	default:
		err = fmt.Errorf("unknown naming policy %q", s)
	}
	return
}

// 子目录扫描方式
type SubfolderScan int

const (
	ScanImmediate SubfolderScan = iota
	ScanRecursive
)

// gdalwarp参数
type WarpOptions struct {
	SrcSRS    string
	DstSRS    string
	Format    string
	XRes      float64 // 为0时由GDAL自动计算
	YRes      float64
	Resample  string
	Overwrite bool
	Extra     []string
}

func (o WarpOptions) Switches() (sw []string) {
	if o.SrcSRS != "" {
		sw = append(sw, "-s_srs", o.SrcSRS)
	}
	if o.DstSRS != "" {
		sw = append(sw, "-t_srs", o.DstSRS)
	}
	if o.Format != "" {
		sw = append(sw, "-of", o.Format)
	}
	if o.XRes != 0 && o.YRes != 0 {
		sw = append(sw, "-tr", fmt.Sprintf("%.17g", o.XRes), fmt.Sprintf("%.17g", o.YRes))
	}
	if o.Resample != "" {
		sw = append(sw, "-r", o.Resample)
	}
	if o.Overwrite {
		sw = append(sw, "-overwrite")
	}
	sw = append(sw, o.Extra...)
	return
}

// 批量重投影任务
type ReprojectJob struct {
	SrcDir          string
	RefPath         string
	OutDir          string
	MatchResolution *bool    // 默认true
	InputFormats    []string // 默认DefaultInputFormats
	OutputFormat    string   // 默认GTiff
	ExtraSwitches   []string
	Workers         int
}

func (j *ReprojectJob) matchResolution() bool {
	return j.MatchResolution == nil || *j.MatchResolution
}

// 镶嵌任务
type MosaicJob struct {
	InputDir        string
	OutputDir       string // 默认同InputDir
	CheckProjection bool
	Naming          NamingPolicy
	Extensions      []string // 默认DefaultMosaicFormats
	ExtraSwitches   []string
}

// 多目录批量镶嵌任务，Mosaic中的InputDir会被各子目录覆盖
type BatchMosaicJob struct {
	ParentDir string
	OutputDir string
	Scan      SubfolderScan
	Mosaic    MosaicJob
	Workers   int
}

// 分区统计任务
type ZonalJob struct {
	VectorPath string
	RasterPath string
	Stats      []string // 默认DefaultZonalStats
	OutputPath string
	Band       int // 默认1
	AllTouched bool
}

type ItemFailure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// 批处理结果汇总
type BatchReport struct {
	RunID     string        `json:"run_id"`
	Processed []string      `json:"processed"`
	Outputs   []string      `json:"outputs"`
	Skipped   []ItemFailure `json:"skipped,omitempty"`
	Failed    []ItemFailure `json:"failed,omitempty"`

	mu sync.Mutex
}

func (r *BatchReport) done(item, out string) {
	r.mu.Lock()
	r.Processed = append(r.Processed, item)
	r.Outputs = append(r.Outputs, out)
	r.mu.Unlock()
}

func (r *BatchReport) skip(item string, err error) {
	r.mu.Lock()
	r.Skipped = append(r.Skipped, ItemFailure{Item: item, Error: err.Error()})
	r.mu.Unlock()
}

func (r *BatchReport) fail(item string, err error) {
	r.mu.Lock()
	r.Failed = append(r.Failed, ItemFailure{Item: item, Error: err.Error()})
	r.mu.Unlock()
}

// 属性字段类型
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldInteger
	FieldReal
)

// 矢量要素，Geometry为WKB；未赋值的属性为nil
type Feature struct {
	FID        int64
	Geometry   GdalGeo
	Attributes map[string]any
}

// 完整读入内存的矢量图层，Features保持图层中的顺序
type FeatureTable struct {
	SRS      string // WKT
	Fields   []string
	Kinds    map[string]FieldKind
	Features []Feature
}

type ZonalRow struct {
	Feature
	Stats map[string]float64 // NaN表示无有效像元
}

// 分区统计结果表，每个输入要素一行，顺序与输入一致
type ZonalTable struct {
	SRS    string
	Fields []string
	Kinds  map[string]FieldKind // 缺失的字段按取值推断
	Stats  []string
	Rows   []ZonalRow
}
