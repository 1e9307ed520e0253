package rasterbatch

import (
	"errors"
	"fmt"
)

var (
	ErrDirectoryNotFound  = errors.New("directory not found")
	ErrUnreadableDataset  = errors.New("unreadable dataset")
	ErrProjectionMismatch = errors.New("projection mismatch")
	ErrInsufficientInput  = errors.New("not enough rasters for mosaic")
	ErrExternalProcessing = errors.New("external processing failed")
	ErrUnknownStatistic   = errors.New("unknown statistic")
	ErrInvalidSwitch      = errors.New("warp switch not allowed")
	ErrRemoteOutput       = errors.New("output to remote storage not supported")
	ErrNoRemote           = errors.New("remote storage not configured")
	ErrEmptyLayer         = errors.New("vector dataset has no layer")
	ErrOutputCollision    = errors.New("output path already taken in this run")
)

type DirectoryNotFoundError struct {
	Path string
	Err  error
}

func (e *DirectoryNotFoundError) Error() string {
	return fmt.Sprintf("directory %s not found: %v", e.Path, e.Err)
}

func (e *DirectoryNotFoundError) Unwrap() []error { return []error{ErrDirectoryNotFound, e.Err} }

type UnreadableDatasetError struct {
	Path string
	Err  error
}

func (e *UnreadableDatasetError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Path, e.Err)
}

func (e *UnreadableDatasetError) Unwrap() []error { return []error{ErrUnreadableDataset, e.Err} }

// 镶嵌输入坐标系不一致，Want为第一个影像的坐标系
type ProjectionMismatchError struct {
	File string
	Want string
	Got  string
}

func (e *ProjectionMismatchError) Error() string {
	return fmt.Sprintf("projection of %s differs from the first raster: want %q, got %q", e.File, e.Want, e.Got)
}

func (e *ProjectionMismatchError) Unwrap() error { return ErrProjectionMismatch }

type InsufficientInputError struct {
	Dir   string
	Count int
}

func (e *InsufficientInputError) Error() string {
	return fmt.Sprintf("not enough rasters in %s for mosaic: %d", e.Dir, e.Count)
}

func (e *InsufficientInputError) Unwrap() error { return ErrInsufficientInput }

type ExternalProcessingError struct {
	Op  string
	Err error
}

func (e *ExternalProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalProcessingError) Unwrap() []error { return []error{ErrExternalProcessing, e.Err} }

// 同一批次中多个输入映射到同一输出文件，With为先占用该路径的输入
type OutputCollisionError struct {
	Path string
	With string
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("output %s collides with %s", e.Path, e.With)
}

func (e *OutputCollisionError) Unwrap() error { return ErrOutputCollision }
