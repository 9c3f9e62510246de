package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

type packageInfo struct {
	ImportPath string
	Imports    []string
}

// headlessOnly lists import prefixes that must stay out of the library tree.
// Terminal rendering belongs to cmd/portal-sandbox; the simulation, logging,
// and catalog packages have to stay headless so they embed anywhere.
var headlessOnly = []string{
	"github.com/gdamore/tcell",
	"github.com/tanema/gween",
}

// transportRoot is the only library package allowed to touch the socket dep.
const transportRoot = "warp-and-wind/server"

func main() {
	cmd := exec.Command("go", "list", "-json", "./...")
	cmd.Env = os.Environ()
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Stderr.Write(exitErr.Stderr)
		}
		fmt.Fprintf(os.Stderr, "depscheck: failed to list packages: %v\n", err)
		os.Exit(1)
	}

	decoder := json.NewDecoder(bytes.NewReader(output))

	var violations []string
	for {
		var pkg packageInfo
		if err := decoder.Decode(&pkg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			fmt.Fprintf(os.Stderr, "depscheck: failed to decode package info: %v\n", err)
			os.Exit(1)
		}

		if strings.HasPrefix(pkg.ImportPath, transportRoot+"/cmd/") ||
			strings.HasPrefix(pkg.ImportPath, transportRoot+"/tools/") {
			continue
		}

		for _, imp := range pkg.Imports {
			if forbidden(pkg.ImportPath, imp) {
				violations = append(violations, fmt.Sprintf("%s -> %s", pkg.ImportPath, imp))
			}
		}
	}

	if len(violations) > 0 {
		sort.Strings(violations)
		fmt.Fprintln(os.Stderr, "depscheck: found forbidden imports:")
		for _, violation := range violations {
			fmt.Fprintf(os.Stderr, "  %s\n", violation)
		}
		os.Exit(1)
	}
}

func forbidden(pkg, imp string) bool {
	for _, prefix := range headlessOnly {
		if strings.HasPrefix(imp, prefix) {
			return true
		}
	}
	if strings.HasPrefix(imp, "github.com/gorilla/websocket") && pkg != transportRoot {
		return true
	}
	return false
}
