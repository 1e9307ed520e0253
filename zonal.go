package rasterbatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/wgdzlh/rasterbatch/log"
	"github.com/wgdzlh/rasterbatch/utils"

	"go.uber.org/zap"
)

// 分区统计：对矢量图层的每个要素统计栅格像元值
// 任一步失败即返回错误，不产生部分结果；OutputPath非空时同时写出结果
func (t *Toolbox) ZonalStatistics(ctx context.Context, job ZonalJob) (table *ZonalTable, err error) {
	stats, err := ValidateStats(job.Stats)
	if err != nil {
		return
	}
	if job.OutputPath != "" && isRemote(job.OutputPath) {
		err = ErrRemoteOutput
		return
	}
	if err = ctx.Err(); err != nil {
		return
	}
	ft, err := t.vector.ReadLayer(job.VectorPath)
	if err != nil {
		err = &UnreadableDatasetError{Path: job.VectorPath, Err: err}
		log.Error(t.logTag+"read vector layer failed", zap.String("vector", job.VectorPath), zap.Error(err))
		return
	}
	log.Info(t.logTag+"start zonal statistics", zap.String("vector", job.VectorPath), zap.String("raster", job.RasterPath),
		zap.Int("features", len(ft.Features)), zap.Strings("stats", stats))
	if err = ctx.Err(); err != nil {
		return
	}
	rows, err := t.vector.ZonalStatistics(ft, job.RasterPath, stats, ZonalOptions{Band: job.Band, AllTouched: job.AllTouched})
	if err == nil && len(rows) != len(ft.Features) {
		err = fmt.Errorf("got %d rows for %d features", len(rows), len(ft.Features))
	}
	if err != nil {
		if !errors.Is(err, ErrUnreadableDataset) {
			err = &ExternalProcessingError{Op: "zonal statistics", Err: err}
		}
		log.Error(t.logTag+"zonal statistics failed", zap.String("raster", job.RasterPath), zap.Error(err))
		return
	}
	res := &ZonalTable{SRS: ft.SRS, Fields: ft.Fields, Kinds: ft.Kinds, Stats: stats, Rows: rows}
	if job.OutputPath != "" {
		if err = utils.EnsureDir(filepath.Dir(job.OutputPath)); err != nil {
			err = &ExternalProcessingError{Op: "create output dir for " + job.OutputPath, Err: err}
			log.Error(t.logTag+"create output dir failed", zap.String("out", job.OutputPath), zap.Error(err))
			return
		}
		if err = t.vector.WriteTable(res, job.OutputPath); err != nil {
			err = &ExternalProcessingError{Op: "write " + job.OutputPath, Err: err}
			log.Error(t.logTag+"save zonal results failed", zap.String("out", job.OutputPath), zap.Error(err))
			return
		}
		log.Info(t.logTag+"results saved", zap.String("out", job.OutputPath))
	}
	table = res
	log.Info(t.logTag+"zonal statistics completed", zap.Int("rows", len(rows)))
	return
}
