package sitecontent

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFooterLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "footer.json")
	doc := `{"meta":{"copyright":"© {{year}} Technofatty"},"columns":[{"title":"Since {{year}}","links":[]}],"version":2}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewFooterLoader(path)
	l.now = func() time.Time { return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC) }

	footer, err := l.Footer()
	if err != nil {
		t.Fatalf("Footer failed: %v", err)
	}
	meta := footer["meta"].(map[string]interface{})
	if meta["copyright"] != "© 2031 Technofatty" {
		t.Errorf("Unexpected copyright %q", meta["copyright"])
	}
	col := footer["columns"].([]interface{})[0].(map[string]interface{})
	if col["title"] != "Since 2031" {
		t.Errorf("Unexpected column title %q", col["title"])
	}

	// Mutating the returned copy must not leak into the next call.
	meta["copyright"] = "changed"
	l.now = func() time.Time { return time.Date(2032, 1, 1, 0, 0, 0, 0, time.UTC) }
	again, _ := l.Footer()
	if again["meta"].(map[string]interface{})["copyright"] != "© 2032 Technofatty" {
		t.Errorf("Expected fresh copy, got %v", again["meta"])
	}
}

func TestFooterLoader_Missing(t *testing.T) {
	l := NewFooterLoader(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := l.Footer(); err == nil {
		t.Error("Expected error for missing file")
	}
}
