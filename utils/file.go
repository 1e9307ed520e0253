package utils

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_CPG = ".cpg"

	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

// shp文件的附属文件扩展名
var ShpSidecarExts = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".qix", ".sbn", ".sbx"}

// 文件名是否以exts中任一扩展名结尾（不区分大小写）
func HasExt(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// 列出目录下符合扩展名的文件名（不含路径）
func ListFiles(dir string, exts ...string) (names []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() || !HasExt(e.Name(), exts...) {
			continue
		}
		names = append(names, e.Name())
	}
	return
}

// 列出子目录完整路径，recursive为true时包含所有层级
func ListSubDirs(dir string, recursive bool) (paths []string, err error) {
	if !recursive {
		var entries []fs.DirEntry
		if entries, err = os.ReadDir(dir); err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
		return
	}
	if _, err = os.Stat(dir); err != nil {
		return
	}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if e != nil {
			return e
		}
		if d.IsDir() && path != dir {
			paths = append(paths, path)
		}
		return nil
	})
	return
}

func EnsureDir(dir string) error {
	return os.MkdirAll(dir, os.ModePerm)
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

// 读取shp同名cpg文件中的编码，utf8为false表示需要按GBK解码
func GetShpEncoding(shp string) (enc string, utf8 bool) {
	cpg := strings.TrimSuffix(shp, filepath.Ext(shp)) + FILE_EXT_CPG
	raw, err := os.ReadFile(cpg)
	if err != nil || len(raw) == 0 {
		return
	}
	enc = strings.ToUpper(strings.TrimSpace(string(raw)))
	utf8 = enc == UTF_8 || enc == UTF8
	return
}

// 删除shp及其附属文件，不存在的忽略
func RemoveShapefile(shp string) (err error) {
	prefix := strings.TrimSuffix(shp, filepath.Ext(shp))
	for _, ext := range ShpSidecarExts {
		if e := os.Remove(prefix + ext); e != nil && !os.IsNotExist(e) {
			err = e
		}
	}
	return
}
