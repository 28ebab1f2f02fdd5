package filesystem

import (
	stderrors "errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/dopack/pkg/errors"
	"github.com/arthur-debert/dopack/pkg/types"
)

// MaxLinkHops bounds how many symbolic links RealPath follows before giving
// up on a path. Matches the limit most kernels apply (ELOOP).
const MaxLinkHops = 40

// RealPath resolves every symbolic link in name and returns the resulting
// absolute, clean path. ".." is applied after the preceding component has
// been resolved, as the kernel does, not lexically. A missing component
// yields an error satisfying errors.Is(err, fs.ErrNotExist), coded
// ErrBrokenSymlink once a link was followed; a chain longer than
// MaxLinkHops yields an ErrSymlinkLoop error.
func RealPath(fsys types.FS, name string) (string, error) {
	if !filepath.IsAbs(name) {
		return "", errors.Newf(errors.ErrInvalidInput, "path %q is not absolute", name)
	}

	volume := filepath.VolumeName(name)
	root := volume + string(filepath.Separator)
	pending := splitPath(name[len(volume):])
	resolved := root
	hops := 0

	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		switch part {
		case ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, part)
		info, err := fsys.Lstat(next)
		if err != nil {
			if hops > 0 && stderrors.Is(err, fs.ErrNotExist) {
				return "", errors.Wrap(err, errors.ErrBrokenSymlink, "dangling symbolic link").
					WithDetail("path", name)
			}
			return "", err
		}
		if info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > MaxLinkHops {
			return "", errors.Newf(errors.ErrSymlinkLoop, "too many levels of symbolic links").
				WithDetail("path", name)
		}

		target, err := fsys.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			volume = filepath.VolumeName(target)
			resolved = volume + string(filepath.Separator)
			target = target[len(volume):]
		}
		pending = append(splitPath(target), pending...)
	}

	return resolved, nil
}

// IsWithin reports whether path equals base or lies beneath it.
func IsWithin(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
