package rasterbatch

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/rasterbatch/log"
	"github.com/wgdzlh/rasterbatch/utils"

	"go.uber.org/zap"
)

type mosaicPlan struct {
	names  []string
	outDir string
	dst    string
}

// 镶嵌InputDir下的所有tif，输出<名称>_Mosaic.tif
// 不足两景时返回InsufficientInputError且不产生输出
func (t *Toolbox) Mosaic(ctx context.Context, job MosaicJob) (out string, err error) {
	plan, err := t.planMosaic(ctx, job)
	if err != nil {
		return
	}
	return t.runMosaic(ctx, job, plan)
}

// 列出参与镶嵌的文件并确定输出路径，不打开任何影像
func (t *Toolbox) planMosaic(ctx context.Context, job MosaicJob) (plan mosaicPlan, err error) {
	if err = CheckWarpSwitches(job.ExtraSwitches); err != nil {
		return
	}
	exts := job.Extensions
	if len(exts) == 0 {
		exts = DefaultMosaicFormats
	}
	plan.outDir = job.OutputDir
	if plan.outDir == "" {
		plan.outDir = job.InputDir
	}
	if isRemote(plan.outDir) {
		err = ErrRemoteOutput
		return
	}
	all, err := t.listFiles(ctx, job.InputDir, exts)
	if err != nil {
		return
	}
	plan.names = make([]string, 0, len(all))
	for _, name := range all {
		// 跳过上次运行生成的镶嵌结果
		if strings.HasSuffix(utils.GetFilenameWithoutExt(name), MOSAIC_SUFFIX) {
			continue
		}
		plan.names = append(plan.names, name)
	}
	if len(plan.names) < 2 {
		err = &InsufficientInputError{Dir: job.InputDir, Count: len(plan.names)}
		log.Info(t.logTag+"not enough tif images in folder for mosaic", zap.String("dir", job.InputDir), zap.Int("cnt", len(plan.names)))
		return
	}
	plan.dst = filepath.Join(plan.outDir, MosaicName(job.InputDir, plan.names[0], job.Naming))
	return
}

func (t *Toolbox) runMosaic(ctx context.Context, job MosaicJob, plan mosaicPlan) (out string, err error) {
	if err = ctx.Err(); err != nil {
		return
	}
	names := plan.names
	log.Info(t.logTag+"processing tif images", zap.String("dir", job.InputDir), zap.Int("cnt", len(names)))

	var (
		ds  Dataset
		dss = make([]Dataset, 0, len(names))
	)
	defer func() {
		closeAll(dss)
	}()
	for _, name := range names {
		if ds, err = t.openRaster(joinPath(job.InputDir, name)); err != nil {
			log.Error(t.logTag+"open tif failed", zap.String("file", name), zap.Error(err))
			return
		}
		dss = append(dss, ds)
	}
	if job.CheckProjection {
		if idx, want, got := firstProjectionMismatch(dss); idx >= 0 {
			err = &ProjectionMismatchError{File: names[idx], Want: want, Got: got}
			log.Error(t.logTag+"not all images have the same coordinate system", zap.String("dir", job.InputDir),
				zap.String("file", names[idx]), zap.String("want", want), zap.String("got", got))
			return
		}
	}
	proj := dss[0].Projection()
	if err = utils.EnsureDir(plan.outDir); err != nil {
		log.Error(t.logTag+"create output dir failed", zap.String("dir", plan.outDir), zap.Error(err))
		return
	}
	opts := WarpOptions{
		SrcSRS:    proj,
		DstSRS:    proj,
		Format:    FORMAT_GTIFF,
		Resample:  RESAMPLE_NEAREST,
		Overwrite: true,
		Extra:     job.ExtraSwitches,
	}
	if err = t.raster.Warp(plan.dst, dss, opts); err != nil {
		err = &ExternalProcessingError{Op: "mosaic " + job.InputDir, Err: err}
		log.Error(t.logTag+"mosaic failed", zap.String("dir", job.InputDir), zap.Error(err))
		return
	}
	out = plan.dst
	log.Info(t.logTag+"mosaic completed", zap.Int("cnt", len(names)), zap.String("out", out))
	return
}

// 镶嵌结果文件名
func MosaicName(dir, first string, naming NamingPolicy) string {
	var token string
	switch naming {
	case NamingDateToken:
		token, _, _ = strings.Cut(utils.GetFilenameWithoutExt(first), DATE_TOKEN_SEP)
	default:
		token = filepath.Base(strings.TrimRight(dir, `/\`))
	}
	return token + MOSAIC_SUFFIX + FILE_EXT_TIF
}
