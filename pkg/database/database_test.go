package database

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestNewGormConnectionSQLite(t *testing.T) {
	db, err := NewGormConnection(Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "ledger.db")})
	if err != nil {
		t.Fatalf("NewGormConnection: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestNewGormConnectionRejectsUnknownDriver(t *testing.T) {
	if _, err := NewGormConnection(Config{Driver: "oracle"}); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

// The service binary links this package, so it must not pull in test helpers.
func TestPackageDoesNotImportTesting(t *testing.T) {
	files, err := filepath.Glob("*.go")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	fset := token.NewFileSet()
	for _, name := range files {
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
		if err != nil {
			t.Fatalf("parsing %s: %v", name, err)
		}
		for _, imp := range f.Imports {
			if path, _ := strconv.Unquote(imp.Path.Value); path == "testing" {
				t.Errorf("%s imports testing", name)
			}
		}
	}
}
