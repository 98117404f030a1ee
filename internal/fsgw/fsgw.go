// Package fsgw implements the Filesystem Gateway (spec §4.4): the
// local-filesystem analogue of the S3 Gateway's verbs.
package fsgw

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/s3c/s3c/internal/apperr"
	"github.com/s3c/s3c/internal/model"
)

// Gateway has no bound state; every verb takes an absolute or
// cwd-relative path.
type Gateway struct{}

// New builds a Filesystem Gateway.
func New() *Gateway { return &Gateway{} }

// PseudoRoot is the Windows drive-selection sentinel path (spec §4.4).
const PseudoRoot = `\\`

// List lists path, synthesizing ".." unless path is a filesystem root, and
// listing drives instead when path is PseudoRoot on Windows (spec §4.4).
func (g *Gateway) List(ctx context.Context, path string) (model.Listing, error) {
	if path == PseudoRoot {
		return driveListing()
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, normalizeErr(err)
	}
	out := make([]model.Entry, 0, len(entries))
	for _, de := range entries {
		info, err := de.Info()
		if err != nil {
			continue
		}
		kind := model.File
		var size int64
		if de.IsDir() {
			kind = model.Directory
		} else {
			size = info.Size()
		}
		out = append(out, model.Entry{
			Name: de.Name(), Kind: kind, Size: size, HasSize: !de.IsDir(),
			MTime: info.ModTime(), HasMTime: true,
		})
	}
	return model.WithUp(out, hasParent(path)), nil
}

func hasParent(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	return filepath.Dir(abs) != abs
}

// ReadRange reads [offset, offset+length) of path (spec §4.4, used by the
// Preview Engine).
func (g *Gateway) ReadRange(ctx context.Context, path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, normalizeErr(err)
	}
	defer f.Close()
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, normalizeErr(err)
	}
	return buf[:n], nil
}

// Head returns size/mtime for path.
func (g *Gateway) Head(ctx context.Context, path string) (int64, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, normalizeErr(err)
	}
	return info.Size(), info.ModTime().Unix(), nil
}

// ProgressFunc reports bytes transferred so far.
type ProgressFunc func(transferred int64)

// Write writes a stream to path, creating parent directories as needed,
// and reporting progress (spec §4.4). On cancellation it removes the
// partial file it created, best-effort (spec §4.6 "delete partial
// destination artifacts").
func (g *Gateway) Write(ctx context.Context, path string, r io.Reader, progress ProgressFunc) (err error) {
	if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
		return normalizeErr(mkErr)
	}
	f, err := os.Create(path)
	if err != nil {
		return normalizeErr(err)
	}
	defer f.Close()
	defer func() {
		if apperr.Is(err, apperr.Canceled) {
			_ = os.Remove(path)
		}
	}()

	buf := make([]byte, 64*1024)
	var transferred int64
	for {
		select {
		case <-ctx.Done():
			err = apperr.New(apperr.Canceled, "")
			return err
		default:
		}
		n, readErr := r.Read(buf)
		if n > 0 {
			if _, werr := f.Write(buf[:n]); werr != nil {
				err = normalizeErr(werr)
				return err
			}
			transferred += int64(n)
			if progress != nil {
				progress(transferred)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			err = normalizeErr(readErr)
			return err
		}
	}
}

// Delete removes path, recursively for directories (spec §4.4).
func (g *Gateway) Delete(ctx context.Context, path string) error {
	return normalizeErr(os.RemoveAll(path))
}

// Rename moves src to dst (spec §4.4).
func (g *Gateway) Rename(ctx context.Context, src, dst string) error {
	return normalizeErr(os.Rename(src, dst))
}

// Mkdir creates path, including parents.
func (g *Gateway) Mkdir(ctx context.Context, path string) error {
	return normalizeErr(os.MkdirAll(path, 0o755))
}

func normalizeErr(err error) error {
	if err == nil {
		return nil
	}
	if os.IsNotExist(err) {
		return apperr.WrapMsg(apperr.NotFound, err.Error(), err)
	}
	if os.IsPermission(err) {
		return apperr.WrapMsg(apperr.AccessDenied, err.Error(), err)
	}
	return apperr.WrapMsg(apperr.Other, err.Error(), err)
}
