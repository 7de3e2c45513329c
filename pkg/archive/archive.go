// Package archive unpacks Node.js release archives.
//
// Release archives wrap everything in one top-level directory named after
// the release (node-v20.1.0-linux-x64/). Extract drops that directory so the
// archive's bin/, lib/ and so on land directly in the destination.
package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ErrUnsafePath is returned for entries that would escape the destination.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Extract unpacks the .tar.gz or .zip file at src into dest. The archive is
// unpacked next to dest first and moved into place only when complete, so
// dest never holds a partial tree. An existing dest is replaced.
func Extract(src, dest string) error {
	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(src), err)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dest)+"-*")
	if err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(src), err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		err = extractTarGz(src, staging)
	case strings.HasSuffix(src, ".zip"):
		err = extractZip(src, staging)
	default:
		err = fmt.Errorf("unsupported archive format")
	}
	if err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(src), err)
	}

	if err := os.Chmod(staging, 0o755); err != nil {
		return fmt.Errorf("extract %s: %w", filepath.Base(src), err)
	}
	if err := os.RemoveAll(dest); err != nil {
		return fmt.Errorf("replace %s: %w", dest, err)
	}
	if err := os.Rename(staging, dest); err != nil {
		return fmt.Errorf("move %s into place: %w", dest, err)
	}
	return nil
}

// entryPath strips the top-level directory from an archive entry name and
// returns it relative to the destination. ok is false for the top-level
// directory itself.
func entryPath(name string) (rel string, ok bool, err error) {
	name = path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	_, rest, found := strings.Cut(name, "/")
	if !found || rest == "" {
		return "", false, nil
	}
	rel = filepath.FromSlash(rest)
	if !filepath.IsLocal(rel) {
		return "", false, fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return rel, true, nil
}

func extractTarGz(src, dest string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		rel, ok, err := entryPath(hdr.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		target := filepath.Join(dest, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := symlink(dest, rel, hdr.Linkname); err != nil {
				return err
			}
		case tar.TypeLink:
			linkRel, ok, err := entryPath(hdr.Linkname)
			if err != nil || !ok {
				return fmt.Errorf("%w: hard link %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Link(filepath.Join(dest, linkRel), target); err != nil {
				return err
			}
		}
	}
}

// symlink recreates a link, refusing targets that resolve outside root.
func symlink(root, rel, linkname string) error {
	if filepath.IsAbs(linkname) || !filepath.IsLocal(filepath.Join(filepath.Dir(rel), filepath.FromSlash(linkname))) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrUnsafePath, rel, linkname)
	}
	target := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	return os.Symlink(linkname, target)
}

func extractZip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer zr.Close()

	for _, zf := range zr.File {
		rel, ok, err := entryPath(zf.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		target := filepath.Join(dest, rel)
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := extractZipFile(zf, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipFile(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	mode := zf.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	return writeFile(target, rc, mode)
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
