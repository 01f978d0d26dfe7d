package io

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// create file with its parent direcrtory, if missing.
//
// args:
//   - name: filepath to be created.
//   - fmod: os.FileMode for file.
//   - dmod: os.FileMode for directory.
//
// Note that `dmod` effects to only newly-created direcotries.
// So, directoreis which have existed are not effected with `dmod`.
//
// return (*os.File, err):
//
//	When a file is created successfully, `(file, nil)` pair will be returned.
//	Or, if it failed creating one of file or direcories, `(nil, err)` pair will be returned.
func CreateAll(name string, fmod os.FileMode, dmod os.FileMode) (*os.File, error) {

	dirname := filepath.Dir(name)
	if err := os.MkdirAll(dirname, dmod); err != nil {
		return nil, err
	}

	return os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, fmod)
}

// CopyFile copies a regular file src to dst.
//
// Parent directories of dst are created if missing.
// When dst exists, it is replaced.
//
// The content is written into a temporary file next to dst and renamed onto dst,
// so readers of dst see either the old file or the new one, never a partial one.
//
// Permission bits and modification time of src are carried to dst.
func CopyFile(src, dst string) error {
	stat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !stat.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, src)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	out, err := os.CreateTemp(dir, "."+filepath.Base(dst)+"-*")
	if err != nil {
		return err
	}
	tmp := out.Name()
	renamed := false
	defer func() {
		if !renamed {
			os.Remove(tmp)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp, stat.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Chtimes(tmp, stat.ModTime(), stat.ModTime()); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return err
	}
	renamed = true
	return nil
}

var ErrNotRegular = errors.New("not a regular file")
var ErrLoopSymlink = errors.New("symlink loop detected")

// CopyTree copies directory src into dst recursively.
//
// Entries already in dst are kept unless they are overwritten by src
// (merge copy). Symlinks in src are followed and copied as their contents.
//
// When symlinks make a loop, it returns ErrLoopSymlink.
func CopyTree(src, dst string) error {
	realroot, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	stat, err := os.Stat(realroot)
	if err != nil {
		return err
	}
	if !stat.IsDir() {
		return CopyFile(src, dst)
	}

	via := map[string]struct{}{realroot: {}}
	return copyDir(src, dst, stat.Mode().Perm(), via)
}

func copyDir(src, dst string, mode fs.FileMode, via map[string]struct{}) error {
	if err := os.MkdirAll(dst, mode|0700); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		err := func() error {
			from := filepath.Join(src, entry.Name())
			to := filepath.Join(dst, entry.Name())

			stat, err := os.Lstat(from)
			if err != nil {
				return err
			}
			if stat.Mode()&os.ModeSymlink != 0 {
				if stat, err = os.Stat(from); err != nil {
					return err
				}
			}

			if !stat.IsDir() {
				if !stat.Mode().IsRegular() {
					return nil
				}
				return CopyFile(from, to)
			}

			realpath, err := filepath.EvalSymlinks(from)
			if err != nil {
				return err
			}
			if _, ok := via[realpath]; ok {
				return fmt.Errorf("%w: %s", ErrLoopSymlink, from)
			}
			via[realpath] = struct{}{}
			defer delete(via, realpath)

			return copyDir(from, to, stat.Mode().Perm(), via)
		}()
		if err != nil {
			return err
		}
	}
	return nil
}
