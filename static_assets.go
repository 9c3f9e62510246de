package server

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveClientAssetsDir locates the web client bundle relative to the
// working directory first, then the executable, so the server finds it both
// under `go run` and as an installed binary.
func ResolveClientAssetsDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve client assets: %w", err)
	}
	if dir, ok := clientAssetsDirFrom(cwd); ok {
		return dir, nil
	}
	exePath, err := os.Executable()
	if err == nil {
		base := filepath.Dir(exePath)
		if dir, ok := clientAssetsDirFrom(base); ok {
			return dir, nil
		}
	}
	return "", fmt.Errorf("client assets directory not found")
}

func clientAssetsDirFrom(base string) (string, bool) {
	candidates := []string{
		filepath.Join(base, "client"),
		filepath.Join(base, "..", "client"),
	}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err != nil {
				continue
			}
			return abs, true
		}
	}
	return "", false
}
