package main

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
)

func TestPackageComments(t *testing.T) {
	fset := token.NewFileSet()
	documented := map[string]bool{}

	err := filepath.WalkDir(filepath.Join("..", "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.PackageClauseOnly|parser.ParseComments)
		if err != nil {
			return err
		}
		if f.Doc == nil {
			return nil
		}

		want := "Package " + f.Name.Name + " "
		if text := f.Doc.Text(); !strings.HasPrefix(text, want) {
			t.Errorf("%s: package comment should start with %q, got %q", path, want, strings.SplitN(text, "\n", 2)[0])
		}
		documented[filepath.Dir(path)] = true
		return nil
	})
	if err != nil {
		t.Fatalf("failed to walk packages: %v", err)
	}

	for _, dir := range []string{"services", "shared", "formatter", "testing", "web", "store"} {
		if !documented[filepath.Join("..", "internal", dir)] {
			t.Errorf("expected internal/%s to have a package comment", dir)
		}
	}
}
