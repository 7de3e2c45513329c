package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/gzip"
)

type entry struct {
	name string
	body string
	mode int64
	link string // symlink target when set
}

func writeTarGz(t *testing.T, path string, entries []entry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: e.mode, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		switch {
		case e.link != "":
			hdr.Typeflag, hdr.Linkname, hdr.Size = tar.TypeSymlink, e.link, 0
		case e.name[len(e.name)-1] == '/':
			hdr.Typeflag, hdr.Size = tar.TypeDir, 0
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if hdr.Typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, entries []entry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(e.body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestExtractTarGz(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on Windows")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "node-v20.1.0-linux-x64.tar.gz")
	writeTarGz(t, src, []entry{
		{name: "node-v20.1.0-linux-x64/", mode: 0o755},
		{name: "node-v20.1.0-linux-x64/bin/node", body: "ELF", mode: 0o755},
		{name: "node-v20.1.0-linux-x64/lib/node_modules/npm/bin/npm-cli.js", body: "js", mode: 0o644},
		{name: "node-v20.1.0-linux-x64/bin/npm", link: "../lib/node_modules/npm/bin/npm-cli.js"},
	})

	dest := filepath.Join(dir, "versions", "20.1.0")
	if err := Extract(src, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "bin", "node")); got != "ELF" {
		t.Errorf("bin/node = %q", got)
	}
	info, err := os.Stat(filepath.Join(dest, "bin", "node"))
	if err != nil || info.Mode().Perm()&0o100 == 0 {
		t.Errorf("bin/node not executable: %v %v", info.Mode(), err)
	}
	if got := readFile(t, filepath.Join(dest, "bin", "npm")); got != "js" {
		t.Errorf("bin/npm via symlink = %q", got)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "versions"))
	if len(entries) != 1 {
		t.Errorf("staging directory left behind: %v", entries)
	}
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "node-v20.1.0-win-x64.zip")
	writeZip(t, src, []entry{
		{name: "node-v20.1.0-win-x64/node.exe", body: "MZ"},
		{name: "node-v20.1.0-win-x64/npm.cmd", body: "@echo off"},
	})

	dest := filepath.Join(dir, "20.1.0")
	if err := Extract(src, dest); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := readFile(t, filepath.Join(dest, "node.exe")); got != "MZ" {
		t.Errorf("node.exe = %q", got)
	}
	if got := readFile(t, filepath.Join(dest, "npm.cmd")); got != "@echo off" {
		t.Errorf("npm.cmd = %q", got)
	}
}

func TestExtractReplacesExisting(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "20.1.0")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "stale"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	src := filepath.Join(dir, "a.zip")
	writeZip(t, src, []entry{{name: "top/fresh", body: "x"}})

	if err := Extract(src, dest); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dest, "stale")); !os.IsNotExist(err) {
		t.Error("stale file survived reinstall")
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	tests := map[string][]entry{
		"dot dot entry":    {{name: "top/../../evil", body: "x", mode: 0o644}},
		"escaping symlink": {{name: "top/bin/sh", link: "../../../bin/sh"}},
		"absolute symlink": {{name: "top/bin/sh", link: "/bin/sh"}},
	}
	for name, entries := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "bad.tar.gz")
			writeTarGz(t, src, entries)
			dest := filepath.Join(dir, "out")

			err := Extract(src, dest)
			if !errors.Is(err, ErrUnsafePath) {
				t.Fatalf("err = %v, want ErrUnsafePath", err)
			}
			if _, err := os.Stat(dest); !os.IsNotExist(err) {
				t.Error("destination created for a rejected archive")
			}
		})
	}
}

func TestExtractUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "node.7z")
	if err := os.WriteFile(src, []byte("7z"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Extract(src, filepath.Join(dir, "out")); err == nil {
		t.Error("Extract should reject unknown formats")
	}
}
