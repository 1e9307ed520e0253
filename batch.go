package rasterbatch

import (
	"context"
	"errors"

	"github.com/wgdzlh/rasterbatch/log"

	"go.uber.org/zap"
)

// 对ParentDir下的每个子目录分别镶嵌，各目录互不影响
func (t *Toolbox) BatchMosaic(ctx context.Context, job BatchMosaicJob) (report *BatchReport, err error) {
	report = newReport()
	dirs, err := t.listSubDirs(ctx, job.ParentDir, job.Scan)
	if err != nil {
		return
	}
	log.Info(t.logTag+"start batch mosaic", zap.String("runId", report.RunID), zap.String("parent", job.ParentDir),
		zap.Int("folders", len(dirs)), zap.Bool("recursive", job.Scan == ScanRecursive))
	var (
		plans   = make(map[string]mosaicPlan, len(dirs))
		planned = make([]string, 0, len(dirs))
		dsts    = make([]string, 0, len(dirs))
	)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		plan, e := t.planMosaic(ctx, job.folderJob(dir))
		if e != nil {
			report.record(dir, "", e)
			continue
		}
		plans[dir] = plan
		planned = append(planned, dir)
		dsts = append(dsts, plan.dst)
	}
	kept, _ := t.claimOutputs(planned, dsts, report)
	err = runBatch(ctx, job.Workers, kept, func(dir string) {
		out, e := t.runMosaic(ctx, job.folderJob(dir), plans[dir])
		report.record(dir, out, e)
	})
	log.Info(t.logTag+"batch mosaic completed", zap.String("runId", report.RunID), zap.Int("mosaicked", len(report.Processed)),
		zap.Int("skipped", len(report.Skipped)), zap.Int("failed", len(report.Failed)))
	return
}

func (j *BatchMosaicJob) folderJob(dir string) (mj MosaicJob) {
	mj = j.Mosaic
	mj.InputDir = dir
	mj.OutputDir = j.OutputDir
	return
}

// 不足两景的目录记为跳过，其余错误记为失败
func (r *BatchReport) record(dir, out string, err error) {
	switch {
	case err == nil:
		r.done(dir, out)
	case errors.Is(err, ErrInsufficientInput):
		r.skip(dir, err)
	default:
		r.fail(dir, err)
	}
}
