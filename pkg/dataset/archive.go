package dataset

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrUnknownFormat = errors.New("unknown archive format")
	ErrUnsafePath    = errors.New("archive entry escapes destination")
)

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
)

// Extract expands an archive file into dest.
//
// The format is detected from its content: zip or tar+gzip.
func Extract(ctx context.Context, archive string, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	head = head[:n]
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	switch {
	case bytes.HasPrefix(head, zipMagic):
		stat, err := f.Stat()
		if err != nil {
			return err
		}
		return unzip(ctx, f, stat.Size(), dest)
	case bytes.HasPrefix(head, gzipMagic):
		return untarGz(ctx, f, dest)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, archive)
	}
}

// safeJoin joins name to dest, and fails if the result is not in dest.
func safeJoin(dest string, name string) (string, error) {
	fullpath := filepath.Join(dest, filepath.FromSlash(name))
	if !within(dest, fullpath) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return fullpath, nil
}

func within(dest string, path string) bool {
	rel, err := filepath.Rel(dest, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func unzip(ctx context.Context, r io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(r, size)
	if errors.Is(err, zip.ErrInsecurePath) {
		return fmt.Errorf("%w: %w", ErrUnsafePath, err)
	} else if err != nil {
		return err
	}

	for _, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		fullpath, err := safeJoin(dest, entry.Name)
		if err != nil {
			return err
		}

		mode := entry.Mode()
		if mode.IsDir() {
			if err := os.MkdirAll(fullpath, 0755); err != nil {
				return err
			}
			continue
		}
		if !mode.IsRegular() {
			continue
		}

		if err := func() error {
			src, err := entry.Open()
			if err != nil {
				return err
			}
			defer src.Close()
			return writeFile(ctx, fullpath, src, mode.Perm())
		}(); err != nil {
			return err
		}
		if mtime := entry.Modified; !mtime.IsZero() {
			if err := os.Chtimes(fullpath, mtime, mtime); err != nil {
				return err
			}
		}
	}
	return nil
}

func untarGz(ctx context.Context, r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	tarr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tarr.Next()
		if err == io.EOF {
			return nil
		}
		if errors.Is(err, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: %w", ErrUnsafePath, err)
		} else if err != nil {
			return err
		}
		if hdr.Name == "" {
			continue
		}

		fullpath, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(fullpath, 0755); err != nil {
				return err
			}
		case tar.TypeSymlink:
			target := filepath.Join(filepath.Dir(fullpath), hdr.Linkname)
			if filepath.IsAbs(hdr.Linkname) || !within(dest, target) {
				return fmt.Errorf("%w: %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(fullpath), 0755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, fullpath); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(ctx, fullpath, tarr, fs.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
			if err := os.Chtimes(fullpath, hdr.ModTime, hdr.ModTime); err != nil {
				return err
			}
		default:
			// other types (devices, fifo, hardlink) are not part of datasets.
		}
	}
}

func writeFile(ctx context.Context, path string, src io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	fp, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fp, &ctxReader{ctx: ctx, r: src}); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

// ctxReader reads as long as ctx is alive.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
	}
	return r.r.Read(p)
}
