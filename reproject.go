package rasterbatch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wgdzlh/rasterbatch/log"
	"github.com/wgdzlh/rasterbatch/utils"

	"go.uber.org/zap"
)

// 批量重投影：将SrcDir下符合格式的影像投影到参考影像的坐标系（可选同时匹配其分辨率）
// 单个文件打开或处理失败只记录并跳过，不中断整批
func (t *Toolbox) BatchReproject(ctx context.Context, job ReprojectJob) (report *BatchReport, err error) {
	report = newReport()
	if err = CheckWarpSwitches(job.ExtraSwitches); err != nil {
		return
	}
	if isRemote(job.OutDir) {
		err = ErrRemoteOutput
		return
	}
	exts := job.InputFormats
	if len(exts) == 0 {
		exts = DefaultInputFormats
	}
	format := job.OutputFormat
	if format == "" {
		format = FORMAT_GTIFF
	}
	if !isRemote(job.RefPath) {
		if _, e := os.Stat(job.RefPath); errors.Is(e, fs.ErrNotExist) {
			err = &DirectoryNotFoundError{Path: job.RefPath, Err: e}
			log.Error(t.logTag+"reference raster not found", zap.String("ref", job.RefPath), zap.Error(err))
			return
		}
	}
	if err = utils.EnsureDir(job.OutDir); err != nil {
		log.Error(t.logTag+"create output dir failed", zap.String("dir", job.OutDir), zap.Error(err))
		return
	}
	ref, err := t.openRaster(job.RefPath)
	if err != nil {
		log.Error(t.logTag+"open reference raster failed", zap.String("ref", job.RefPath), zap.Error(err))
		return
	}
	defer ref.Close()
	md, err := readMetadata(job.RefPath, ref)
	if err != nil {
		log.Error(t.logTag+"read reference geotransform failed", zap.String("ref", job.RefPath), zap.Error(err))
		return
	}
	opts := WarpOptions{
		DstSRS:    md.Projection,
		Format:    format,
		Overwrite: true,
		Extra:     job.ExtraSwitches,
	}
	if job.matchResolution() {
		opts.XRes = md.GeoTransform.PixelWidth()
		opts.YRes = -md.GeoTransform.PixelHeight()
	}
	names, err := t.listFiles(ctx, job.SrcDir, exts)
	if err != nil {
		return
	}
	log.Info(t.logTag+"start batch reprojection", zap.String("runId", report.RunID), zap.String("src", job.SrcDir),
		zap.String("ref", job.RefPath), zap.Int("files", len(names)), zap.Bool("matchRes", job.matchResolution()),
		zap.String("format", format))
	ext := FormatExt(format)
	outs := make([]string, len(names))
	for i, name := range names {
		outs[i] = filepath.Join(job.OutDir, REPROJECTED_PREFIX+utils.GetFilenameWithoutExt(name)+ext)
	}
	kept, targets := t.claimOutputs(names, outs, report)
	err = runBatch(ctx, job.Workers, kept, func(name string) {
		t.reprojectOne(joinPath(job.SrcDir, name), targets[name], opts, report)
	})
	log.Info(t.logTag+"batch reprojection completed", zap.String("runId", report.RunID), zap.Int("processed", len(report.Processed)),
		zap.Int("skipped", len(report.Skipped)), zap.Int("failed", len(report.Failed)))
	return
}

func (t *Toolbox) reprojectOne(src, out string, opts WarpOptions, report *BatchReport) {
	name := filepath.Base(src)
	ds, err := t.openRaster(src)
	if err != nil {
		log.Warn(t.logTag+"failed to open file", zap.String("file", name), zap.Error(err))
		report.skip(name, err)
		return
	}
	defer ds.Close()
	if err = t.raster.Warp(out, []Dataset{ds}, opts); err != nil {
		err = &ExternalProcessingError{Op: "reproject " + name, Err: err}
		log.Error(t.logTag+"error processing file", zap.String("file", name), zap.Error(err))
		report.fail(name, err)
		return
	}
	log.Info(t.logTag+"processed", zap.String("file", name), zap.String("out", out))
	report.done(name, out)
}
