package rasterbatch

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/wgdzlh/rasterbatch/log"
	"github.com/wgdzlh/rasterbatch/utils"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

// shp的cpg为空或者不为UTF-8的，非UTF-8文本都当作GBK编码处理
func decodeText(s string, gbk bool) string {
	if !gbk || utf8.ValidString(s) {
		return s
	}
	d, err := utils.GbkStrToUtf8(s)
	if err != nil {
		return utils.PurifyForUtf8(s)
	}
	return d
}

func fieldKind(ft godal.FieldType) FieldKind {
	switch ft {
	case godal.FTInt, godal.FTInt64:
		return FieldInteger
	case godal.FTReal:
		return FieldReal
	default:
		return FieldString
	}
}

// 读取矢量文件的第一个图层
// godal不区分OGR的空值与0，只有从未赋值的字段读为nil
func (g *GdalEngine) ReadLayer(path string) (table *FeatureTable, err error) {
	var (
		opts = []godal.OpenOption{godal.VectorOnly()}
		gbk  bool
	)
	if utils.HasExt(path, FILE_EXT_SHP) {
		if _, isUtf8 := utils.GetShpEncoding(path); !isUtf8 {
			gbk = true
			opts = append(opts, godal.DriverOpenOption(OO_RAW_ENCODING))
		}
	}
	ds, err := godal.Open(path, opts...)
	if err != nil {
		log.Error(g.logTag+"open vector error", zap.String("path", path), zap.Error(err))
		return
	}
	defer ds.Close()
	layers := ds.Layers()
	if len(layers) == 0 {
		err = fmt.Errorf("%w: %s", ErrEmptyLayer, path)
		return
	}
	layer := layers[0]
	table = &FeatureTable{Kinds: map[string]FieldKind{}}
	if wkt, e := layer.SpatialRef().WKT(); e == nil {
		table.SRS = wkt
	}
	for fid := int64(0); ; fid++ {
		feat := layer.NextFeature()
		if feat == nil {
			break
		}
		f := Feature{FID: fid, Attributes: map[string]any{}}
		for name, fld := range feat.Fields() {
			name = decodeText(name, gbk)
			kind := fieldKind(fld.Type())
			table.Kinds[name] = kind
			if !fld.IsSet() {
				f.Attributes[name] = nil
				continue
			}
			switch kind {
			case FieldInteger:
				f.Attributes[name] = fld.Int()
			case FieldReal:
				f.Attributes[name] = fld.Float()
			default:
				f.Attributes[name] = decodeText(fld.String(), gbk)
			}
		}
		if geo := feat.Geometry(); !geo.Empty() {
			if f.Geometry, err = geo.WKB(); err != nil {
				feat.Close()
				log.Error(g.logTag+"export feature wkb failed", zap.String("path", path), zap.Int64("fid", fid), zap.Error(err))
				table = nil
				return
			}
		}
		feat.Close()
		table.Features = append(table.Features, f)
	}
	table.Fields = make([]string, 0, len(table.Kinds))
	for name := range table.Kinds {
		table.Fields = append(table.Fields, name)
	}
	sort.Strings(table.Fields)
	log.Info(g.logTag+"layer loaded", zap.String("path", path), zap.Int("features", len(table.Features)),
		zap.Int("fields", len(table.Fields)), zap.Bool("gbk", gbk))
	return
}

// 按扩展名选择输出驱动，默认shp
func vectorDriver(path string) string {
	if d, ok := vectorDrivers[strings.ToLower(filepath.Ext(path))]; ok {
		return d
	}
	return SHP_DRIVER_NAME
}

type tableColumn struct {
	name string
	kind FieldKind
	stat bool
}

// 输出列：属性字段在前（与统计量同名的被统计量覆盖），统计量列一律为浮点
func tableColumns(table *ZonalTable) (cols []tableColumn) {
	isStat := make(map[string]bool, len(table.Stats))
	for _, s := range table.Stats {
		isStat[s] = true
	}
	for _, name := range table.Fields {
		if isStat[name] {
			continue
		}
		kind, ok := table.Kinds[name]
		if !ok {
			kind = inferKind(table.Rows, name)
		}
		cols = append(cols, tableColumn{name: name, kind: kind})
	}
	for _, s := range table.Stats {
		cols = append(cols, tableColumn{name: s, kind: FieldReal, stat: true})
	}
	return
}

// 全为整数时为整型，出现浮点则为浮点，其余为字符串
func inferKind(rows []ZonalRow, name string) (kind FieldKind) {
	kind = FieldString
	for _, row := range rows {
		switch row.Attributes[name].(type) {
		case nil:
		case int, int64:
			if kind == FieldString {
				kind = FieldInteger
			}
		case float64:
			kind = FieldReal
		default:
			return FieldString
		}
	}
	return
}

// 按列类型转换取值，ok为false时该字段不赋值（输出为空）
func columnValue(kind FieldKind, v any) (val any, ok bool) {
	switch kind {
	case FieldInteger:
		switch x := v.(type) {
		case int64:
			return x, true
		case int:
			return int64(x), true
		case float64:
			if !math.IsNaN(x) {
				return int64(x), true
			}
		}
	case FieldReal:
		switch x := v.(type) {
		case float64:
			if !math.IsNaN(x) {
				return x, true
			}
		case int64:
			return float64(x), true
		case int:
			return float64(x), true
		}
	default:
		switch x := v.(type) {
		case nil:
		case string:
			return x, true
		default:
			return fmt.Sprint(x), true
		}
	}
	return
}

func fieldDefinition(col tableColumn) *godal.FieldDefinition {
	switch col.kind {
	case FieldInteger:
		return godal.NewFieldDefinition(col.name, godal.FTInt64)
	case FieldReal:
		return godal.NewFieldDefinition(col.name, godal.FTReal)
	default:
		return godal.NewFieldDefinition(col.name, godal.FTString)
	}
}

// 图层几何类型取第一个几何的类型，类型不一致时为Unknown
func tableGeometryType(rows []ZonalRow) (gtype godal.GeometryType, err error) {
	gtype = godal.GTUnknown
	first := true
	for _, row := range rows {
		if len(row.Geometry) == 0 {
			continue
		}
		var geo *godal.Geometry
		if geo, err = godal.NewGeometryFromWKB(row.Geometry, nil); err != nil {
			return
		}
		t := geo.Type()
		geo.Close()
		if first {
			gtype, first = t, false
		} else if t != gtype {
			gtype = godal.GTUnknown
			return
		}
	}
	return
}

func writeRow(layer godal.Layer, row ZonalRow, cols []tableColumn) (err error) {
	feat, err := layer.NewFeature(nil)
	if err != nil {
		return
	}
	defer feat.Close()
	if len(row.Geometry) > 0 {
		var geo *godal.Geometry
		if geo, err = godal.NewGeometryFromWKB(row.Geometry, nil); err != nil {
			return
		}
		err = feat.SetGeometry(geo)
		geo.Close()
		if err != nil {
			return
		}
	}
	fields := feat.Fields()
	for _, col := range cols {
		var raw any
		if col.stat {
			if v, ok := row.Stats[col.name]; ok {
				raw = v
			}
		} else {
			raw = row.Attributes[col.name]
		}
		val, ok := columnValue(col.kind, raw)
		if !ok {
			continue
		}
		fld, ok := fields[col.name]
		if !ok {
			continue
		}
		if err = feat.SetFieldValue(fld, val); err != nil {
			err = fmt.Errorf("field %s: %w", col.name, err)
			return
		}
	}
	err = layer.CreateFeature(feat)
	return
}

// 先按字段类型写入内存图层，再经ogr2ogr转为目标格式
func (g *GdalEngine) WriteTable(table *ZonalTable, out string) (err error) {
	gtype, err := tableGeometryType(table.Rows)
	if err != nil {
		log.Error(g.logTag+"parse feature wkb failed", zap.Error(err))
		return
	}
	mem, err := godal.CreateVector(godal.Memory, "")
	if err != nil {
		log.Error(g.logTag+"create memory dataset failed", zap.Error(err))
		return
	}
	defer mem.Close()
	var sr *godal.SpatialRef
	if table.SRS != "" {
		if sr, err = godal.NewSpatialRefFromWKT(table.SRS); err != nil {
			log.Error(g.logTag+"parse table srs failed", zap.Error(err))
			return
		}
		defer sr.Close()
	}
	cols := tableColumns(table)
	defs := make([]godal.CreateLayerOption, len(cols))
	for i, col := range cols {
		defs[i] = fieldDefinition(col)
	}
	layer, err := mem.CreateLayer(MEM_LAYER_NAME, sr, gtype, defs...)
	if err != nil {
		log.Error(g.logTag+"create memory layer failed", zap.Error(err))
		return
	}
	for _, row := range table.Rows {
		if err = writeRow(layer, row, cols); err != nil {
			log.Error(g.logTag+"write feature failed", zap.Int64("fid", row.FID), zap.Error(err))
			return
		}
	}

	driver := vectorDriver(out)
	switches := []string{"-f", driver}
	if driver == SHP_DRIVER_NAME {
		switches = append(switches, "-lco", ENCODING_OPTION)
		err = utils.RemoveShapefile(out)
	} else if e := os.Remove(out); e != nil && !errors.Is(e, os.ErrNotExist) {
		err = e
	}
	if err != nil {
		log.Error(g.logTag+"remove old output failed", zap.String("out", out), zap.Error(err))
		return
	}
	var topts []godal.DatasetVectorTranslateOption
	if cfg := g.tmpConfig(); cfg != nil {
		topts = append(topts, godal.ConfigOption(cfg...))
	}
	dds, err := mem.VectorTranslate(out, switches, topts...)
	if err != nil {
		log.Error(g.logTag+"VectorTranslate failed", zap.String("out", out), zap.Error(err))
		return
	}
	err = dds.Close() // 生成结果文件
	log.Debug(g.logTag+"table written", zap.String("out", out), zap.String("driver", driver),
		zap.Int("rows", len(table.Rows)), zap.Int("columns", len(cols)))
	return
}
