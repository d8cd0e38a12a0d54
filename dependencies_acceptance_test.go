package hireline_test

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func TestModuleDependencies_StackPresent(t *testing.T) {
	for _, module := range []string{
		"github.com/gin-gonic/gin",
		"gorm.io/gorm",
		"github.com/knadh/koanf/v2",
		"github.com/simp-lee/logger",
		"github.com/golang-jwt/jwt/v5",
		"github.com/robfig/cron/v3",
		"github.com/redis/go-redis/v9",
		"github.com/spf13/cobra",
		"golang.org/x/crypto",
	} {
		t.Run(module, func(t *testing.T) {
			testModulePresence(t, module)
		})
	}
}

// Internal packages must stay below the commands; the stores and the
// session never reach into the backend.
func TestImports_ClientSideDoesNotImportBackend(t *testing.T) {
	backend := []string{
		"/internal/app",
		"/internal/module/",
		"/internal/middleware",
		"/internal/storage",
		"/internal/pkg",
	}
	for _, dir := range []string{"internal/store", "internal/session", "internal/apiclient"} {
		matches, err := findImports(dir, backend)
		if err != nil {
			t.Fatalf("scan %s: %v", dir, err)
		}
		if len(matches) != 0 {
			t.Errorf("%s imports backend packages: %v", dir, matches)
		}
	}
}

func TestHasImport_Fixture(t *testing.T) {
	fixture := `package store

import (
	"context"

	"github.com/simp-lee/hireline/internal/module/job"
)`
	if !hasImport(fixture, "/internal/module/") {
		t.Fatal("expected fixture import to be detected")
	}
	if hasImport(fixture, "/internal/app") {
		t.Fatal("unexpected match")
	}
}

func testModulePresence(t *testing.T, module string) {
	t.Helper()

	t.Run("happy_present_in_real_go_mod", func(t *testing.T) {
		goMod, err := os.ReadFile("go.mod")
		if err != nil {
			t.Fatalf("read go.mod: %v", err)
		}
		if !moduleRequired(string(goMod), module) {
			t.Fatalf("expected module %q to be present in go.mod", module)
		}
	})

	t.Run("error_missing_module_in_fixture", func(t *testing.T) {
		fixture := `module example.com/demo

go 1.25.0

require (
	example.com/other v1.0.0
)`
		if moduleRequired(fixture, module) {
			t.Fatalf("expected fixture to not contain module %q", module)
		}
	})
}

func moduleRequired(goModContent, module string) bool {
	re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(module) + `\s+v\S+`)
	return re.MatchString(goModContent)
}

func findImports(root string, suffixes []string) ([]string, error) {
	matches := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		b, readErr := os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		for _, s := range suffixes {
			if hasImport(string(b), s) {
				matches = append(matches, path)
				break
			}
		}
		return nil
	})
	return matches, err
}

func hasImport(content, fragment string) bool {
	re := regexp.MustCompile(`"github\.com/simp-lee/hireline` + regexp.QuoteMeta(fragment))
	return re.MatchString(content)
}
