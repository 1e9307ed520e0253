package rasterbatch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/wgdzlh/rasterbatch/log"
	"github.com/wgdzlh/rasterbatch/utils"

	"cloud.google.com/go/storage"
	"github.com/airbusgeo/godal"
	"github.com/airbusgeo/osio"
	"github.com/airbusgeo/osio/gcs"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
)

const (
	DEFAULT_BLOCK_SIZE        = "512k"
	DEFAULT_NUM_CACHED_BLOCKS = 1000
)

// gs://远程存储：对象列举走storage客户端，栅格读取走GDAL的VSI处理器
type Remote struct {
	client *storage.Client
	logTag string
}

// 连接GCS并把gs://前缀注册为GDAL可读的VSI路径
func NewRemote(ctx context.Context, blockSize string, numCachedBlocks int) (r *Remote, err error) {
	if blockSize == "" {
		blockSize = DEFAULT_BLOCK_SIZE
	}
	if numCachedBlocks <= 0 {
		numCachedBlocks = DEFAULT_NUM_CACHED_BLOCKS
	}
	stcl, err := storage.NewClient(ctx)
	if err != nil {
		err = fmt.Errorf("storage.newclient: %w", err)
		return
	}
	gcsh, err := gcs.Handle(ctx, gcs.GCSClient(stcl))
	if err != nil {
		stcl.Close()
		err = fmt.Errorf("gcs.handle: %w", err)
		return
	}
	gcsa, err := osio.NewAdapter(gcsh, osio.BlockSize(blockSize), osio.NumCachedBlocks(numCachedBlocks))
	if err != nil {
		stcl.Close()
		err = fmt.Errorf("osio.new: %w", err)
		return
	}
	if err = godal.RegisterVSIHandler(REMOTE_PREFIX, gcsa); err != nil {
		stcl.Close()
		err = fmt.Errorf("register osio: %w", err)
		return
	}
	r = &Remote{client: stcl, logTag: "Remote:"}
	log.Info(r.logTag+"gcs handler registered", zap.String("prefix", REMOTE_PREFIX), zap.String("blockSize", blockSize),
		zap.Int("cachedBlocks", numCachedBlocks))
	return
}

func (r *Remote) Close() error {
	return r.client.Close()
}

// gs://bucket/a/b -> bucket, a/b/
func splitURI(uri string) (bucket, prefix string) {
	rest := strings.TrimPrefix(uri, REMOTE_PREFIX)
	bucket, prefix, _ = strings.Cut(rest, "/")
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return
}

func remoteError(uri string, err error) error {
	if errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %s: %v", fs.ErrNotExist, uri, err)
	}
	return err
}

// 列出uri下（不含子目录）符合扩展名的对象名
func (r *Remote) ListFiles(ctx context.Context, uri string, exts ...string) (names []string, err error) {
	bucket, prefix := splitURI(uri)
	it := r.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	var found bool
	for {
		attrs, e := it.Next()
		if e == iterator.Done {
			break
		}
		if e != nil {
			err = remoteError(uri, e)
			return
		}
		found = true
		if attrs.Name == "" {
			continue
		}
		name := strings.TrimPrefix(attrs.Name, prefix)
		if name == "" || !utils.HasExt(name, exts...) {
			continue
		}
		names = append(names, name)
	}
	if !found {
		err = fmt.Errorf("%w: %s", fs.ErrNotExist, uri)
	}
	return
}

// 列出uri下的子目录（对象前缀），recursive时包含所有层级
func (r *Remote) ListSubDirs(ctx context.Context, uri string, recursive bool) (dirs []string, err error) {
	bucket, prefix := splitURI(uri)
	base := REMOTE_PREFIX + bucket + "/"
	q := &storage.Query{Prefix: prefix}
	if !recursive {
		q.Delimiter = "/"
	}
	var (
		it    = r.client.Bucket(bucket).Objects(ctx, q)
		seen  = map[string]struct{}{}
		found bool
	)
	add := func(rel string) {
		if _, ok := seen[rel]; ok {
			return
		}
		seen[rel] = struct{}{}
		dirs = append(dirs, base+prefix+rel)
	}
	for {
		attrs, e := it.Next()
		if e == iterator.Done {
			break
		}
		if e != nil {
			err = remoteError(uri, e)
			return
		}
		found = true
		if attrs.Prefix != "" {
			add(strings.TrimSuffix(strings.TrimPrefix(attrs.Prefix, prefix), "/"))
			continue
		}
		parts := strings.Split(strings.TrimPrefix(attrs.Name, prefix), "/")
		for i := 1; i < len(parts); i++ {
			add(strings.Join(parts[:i], "/"))
		}
	}
	if !found {
		err = fmt.Errorf("%w: %s", fs.ErrNotExist, uri)
	}
	return
}
