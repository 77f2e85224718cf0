package javadoc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ErrBadArchive is returned when a javadoc archive cannot be read or holds
// entries that would land outside the target directory.
var ErrBadArchive = errors.New("bad javadoc archive")

// Extract unpacks the zip archive at src into dir, which must exist.
func Extract(src, dir string) (err error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer func() {
		if cerr := zr.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, f := range zr.File {
		if !filepath.IsLocal(f.Name) {
			return fmt.Errorf("%w: invalid path %q", ErrBadArchive, f.Name)
		}
		dest := filepath.Join(dir, filepath.FromSlash(f.Name))

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return err
			}
			continue
		case !mode.IsRegular():
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, dest); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, dest string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(out, archiveReader{rc})
	return err
}

// archiveReader reports entry read failures as ErrBadArchive. Decompressors
// signal corruption with their own error types.
type archiveReader struct {
	r io.Reader
}

func (a archiveReader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	if err != nil && err != io.EOF {
		err = fmt.Errorf("%w: %v", ErrBadArchive, err)
	}
	return n, err
}
