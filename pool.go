package rasterbatch

import (
	"context"
	"path/filepath"

	"github.com/wgdzlh/rasterbatch/log"

	"github.com/google/uuid"
	"github.com/tbonfort/gobs"
	"go.uber.org/zap"
)

func newReport() *BatchReport {
	return &BatchReport{RunID: uuid.NewString()}
}

// 以workers个并发处理items，单项的失败由fn自行记录，不影响其他项
// workers<=1时按顺序逐个处理；ctx取消后不再派发新的任务
func runBatch(ctx context.Context, workers int, items []string, fn func(item string)) error {
	if workers < 1 {
		workers = 1
	}
	batch := gobs.NewPool(workers).Batch()
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		item := item
		batch.Submit(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(item)
			return nil
		})
	}
	if err := batch.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// 派发前为每项分配输出路径：同一路径只归第一个输入，其余记为失败且不派发
// outs[i]为items[i]的输出，返回可派发的项及其输出
func (t *Toolbox) claimOutputs(items, outs []string, report *BatchReport) (kept []string, targets map[string]string) {
	owner := make(map[string]string, len(items))
	targets = make(map[string]string, len(items))
	for i, item := range items {
		key := filepath.Clean(outs[i])
		if prev, ok := owner[key]; ok {
			err := &OutputCollisionError{Path: outs[i], With: prev}
			log.Error(t.logTag+"output path collision", zap.String("item", item), zap.Error(err))
			report.fail(item, err)
			continue
		}
		owner[key] = item
		targets[item] = outs[i]
		kept = append(kept, item)
	}
	return
}
