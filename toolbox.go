package rasterbatch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/rasterbatch/log"
	"github.com/wgdzlh/rasterbatch/utils"

	"go.uber.org/zap"
)

type Toolbox struct {
	raster RasterEngine
	vector VectorEngine
	remote *Remote
	tmpDir string
	logTag string
}

// 初始化批处理工具箱，tmpDir为可选的临时目录路径（未提供的话为当前目录）
func NewToolbox(tmpDir ...string) *Toolbox {
	t := &Toolbox{
		logTag: "Toolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		t.tmpDir = tmpDir[0]
	}
	engine := NewGdalEngine(t.tmpDir)
	t.raster = engine
	t.vector = engine
	return t
}

// 替换栅格处理引擎
func (t *Toolbox) WithRaster(r RasterEngine) *Toolbox {
	t.raster = r
	return t
}

// 替换矢量处理引擎
func (t *Toolbox) WithVector(v VectorEngine) *Toolbox {
	t.vector = v
	return t
}

// 挂载远程存储，之后gs://路径可作为输入目录
func (t *Toolbox) WithRemote(r *Remote) *Toolbox {
	t.remote = r
	return t
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, REMOTE_PREFIX)
}

func dirError(dir string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &DirectoryNotFoundError{Path: dir, Err: err}
	}
	return err
}

// 列出目录中符合扩展名的文件名
func (t *Toolbox) listFiles(ctx context.Context, dir string, exts []string) (names []string, err error) {
	if isRemote(dir) {
		if t.remote == nil {
			err = ErrNoRemote
			return
		}
		names, err = t.remote.ListFiles(ctx, dir, exts...)
	} else {
		names, err = utils.ListFiles(dir, exts...)
	}
	if err != nil {
		err = dirError(dir, err)
		log.Error(t.logTag+"list files failed", zap.String("dir", dir), zap.Error(err))
	}
	return
}

// 列出子目录
func (t *Toolbox) listSubDirs(ctx context.Context, dir string, scan SubfolderScan) (dirs []string, err error) {
	recursive := scan == ScanRecursive
	if isRemote(dir) {
		if t.remote == nil {
			err = ErrNoRemote
			return
		}
		dirs, err = t.remote.ListSubDirs(ctx, dir, recursive)
	} else {
		dirs, err = utils.ListSubDirs(dir, recursive)
	}
	if err != nil {
		err = dirError(dir, err)
		log.Error(t.logTag+"list sub dirs failed", zap.String("dir", dir), zap.Error(err))
	}
	return
}

func joinPath(dir, name string) string {
	if isRemote(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}
	return filepath.Join(dir, name)
}
