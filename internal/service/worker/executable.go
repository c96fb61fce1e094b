package worker

import (
	"os"
	"os/exec"
	"path/filepath"
)

// ResolveExecutable picks the interpreter once at startup: the override if set,
// then a project virtualenv under root, then python/python3 on PATH, then a
// bare "python" left for the OS to resolve.
func ResolveExecutable(override, root string) string {
	if override != "" {
		return override
	}
	candidates := []string{
		filepath.Join(root, "venv", "bin", "python"),
		filepath.Join(root, "venv", "Scripts", "python.exe"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	for _, name := range []string{"python", "python3"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return "python"
}
