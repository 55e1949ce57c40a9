package config

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv points relative runtime paths at a fixed directory instead of
// the executable's own.
const HomeEnv = "DOCAGENT_HOME"

// HomeDir is the base that relative runtime paths resolve against:
// $DOCAGENT_HOME, else the directory of the resolved executable, else the
// working directory.
func HomeDir() string {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return filepath.Clean(home)
	}
	if exe, err := os.Executable(); err == nil {
		if real, err := filepath.EvalSymlinks(exe); err == nil {
			exe = real
		}
		return filepath.Dir(exe)
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// ResolveRuntimePath returns raw (or fallback when raw is blank) as an
// absolute path under HomeDir. Absolute inputs are only cleaned.
func ResolveRuntimePath(raw, fallback string) string {
	target := strings.TrimSpace(raw)
	if target == "" {
		target = strings.TrimSpace(fallback)
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Join(HomeDir(), target)
}
