package vpath

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/levelforge/pkg/errors"
)

// Extract writes the resolved bytes to rel under destRoot and returns the
// written path. The destination is validated to stay inside destRoot before
// anything is created, so hostile entry names in an archive cannot escape
// it.
func Extract(h Hit, destRoot, rel string) (string, error) {
	if !h.Found {
		return "", errors.New(errors.ErrCodeResolutionMiss, "cannot extract an unresolved reference")
	}

	dest, err := securePath(destRoot, rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create extraction directory for %s", rel)
	}

	src, err := h.Open()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "open %s", h.Location())
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "create %s", dest)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dest)
		return "", errors.Wrap(errors.ErrCodeIO, err, "extract %s", h.Location())
	}
	if err := out.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "finalize %s", dest)
	}
	return dest, nil
}

// securePath joins rel onto root and rejects any result that escapes root,
// whether through "..", an absolute path, or a crafted archive entry name.
func securePath(root, rel string) (string, error) {
	cleanRoot, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "invalid extraction root %q", root)
	}
	rel = filepath.FromSlash(rel)
	if filepath.IsAbs(rel) {
		return "", errors.New(errors.ErrCodeInvalidPath, "refusing absolute extraction path %q", rel)
	}
	dest := filepath.Clean(filepath.Join(cleanRoot, rel))
	if dest != cleanRoot && !strings.HasPrefix(dest, cleanRoot+string(filepath.Separator)) {
		return "", errors.New(errors.ErrCodeInvalidPath, "extraction path %q escapes destination", rel)
	}
	return dest, nil
}
