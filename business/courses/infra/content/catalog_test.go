package content

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jinwei908/eth-market-course/internal/apperror"
	"github.com/jinwei908/eth-market-course/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courses.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSourceLoad(t *testing.T) {
	path := writeCatalog(t, `[
		{"id": "1410474", "title": "SQL for Data Analysis", "slug": "sql"},
		{"id": "1552289", "title": "Solidity for Beginners", "slug": "solidity"}
	]`)

	catalog, err := NewFileSource(path, testLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if catalog.Len() != 2 {
		t.Fatalf("Len = %d, want 2", catalog.Len())
	}
	if c, ok := catalog.ByID("1410474"); !ok || c.Title != "SQL for Data Analysis" {
		t.Errorf("ByID = %+v, %v", c, ok)
	}
}

func TestFileSourceRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not_json", body: "not json"},
		{name: "missing_id", body: `[{"title": "No ID"}]`},
		{name: "duplicate_id", body: `[{"id": "a"}, {"id": "a"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCatalog(t, tt.body)
			_, err := NewFileSource(path, testLogger()).Load(context.Background())
			if apperror.CodeOf(err) != apperror.CodeCatalogInvalid {
				t.Errorf("err = %v, want CodeCatalogInvalid", err)
			}
		})
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.json"), testLogger())
	if _, err := src.Load(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}
