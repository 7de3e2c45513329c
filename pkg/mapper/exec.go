package mapper

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Lookup resolves command to a file in binDir. The bare name is tried first,
// then each candidate extension in order.
func (m *Mapper) Lookup(binDir, command string) (string, error) {
	candidates := []string{filepath.Join(binDir, command)}
	for _, ext := range m.platform.CandidateExtensions() {
		candidates = append(candidates, filepath.Join(binDir, command+ext))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &CommandNotFoundError{Command: command, Dir: binDir, Tried: candidates}
}

// Exec runs command from binDir with args and the standard streams of the
// current process, waits for it and returns its exit code. binDir is put
// first on the child's PATH so scripts that call "node" get the same
// toolchain.
func (m *Mapper) Exec(binDir, command string, args []string) (int, error) {
	path, err := m.Lookup(binDir, command)
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "PATH="+prependPath(binDir, os.Getenv("PATH")))

	m.logger.Debug("exec", "path", path, "args", args)
	err = cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			code = 1
		}
		return code, nil
	}
	if err != nil {
		return 0, fmt.Errorf("run %s: %w", path, err)
	}
	return 0, nil
}

func prependPath(dir, path string) string {
	if path == "" {
		return dir
	}
	return dir + string(os.PathListSeparator) + path
}
