package snippet

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// detectPackageName finds the Go package name stubs should carry for dir.
// It reads the package clause from existing Go files first, then falls back
// to the last segment of the module path from the nearest go.mod, then to
// the directory name.
func detectPackageName(dir string) (string, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	fset := token.NewFileSet()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("cannot read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		f, parseErr := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.PackageClauseOnly)
		if parseErr != nil {
			continue
		}
		if f.Name != nil && f.Name.Name != "" {
			return f.Name.Name, nil
		}
	}

	return packageNameFromDir(dir)
}

func packageNameFromDir(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	current := absDir
	for {
		goModPath := filepath.Join(current, "go.mod")
		if data, readErr := os.ReadFile(goModPath); readErr == nil {
			modFile, parseErr := modfile.Parse(goModPath, data, nil)
			if parseErr == nil && modFile.Module != nil {
				if current == absDir {
					if name := sanitizePackageName(filepath.Base(modFile.Module.Mod.Path)); name != "" {
						return name, nil
					}
				}
				break
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	if name := sanitizePackageName(filepath.Base(absDir)); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("cannot derive package name from directory %s", dir)
}

// sanitizePackageName turns a directory or module path segment into a valid
// Go package name.
func sanitizePackageName(raw string) string {
	if raw == "" || raw == "." || raw == "/" {
		return ""
	}

	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		case r == '-' || r == '.':
			if i == 0 {
				continue
			}
			b.WriteRune('_')
		}
	}

	name := b.String()
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}
