package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		stem   string
		want   string
	}{
		{"empty output uses stem", "", "widgets", "widgets"},
		{"known extension stripped", "out.svg", "widgets", "out"},
		{"html extension stripped", "page.html", "widgets", "page"},
		{"unknown extension kept", "out.txt", "widgets", "out.txt"},
		{"no extension kept", "out", "widgets", "out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := basePath(tt.output, tt.stem); got != tt.want {
				t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.stem, got, tt.want)
			}
		})
	}
}

func TestStemFromLayoutPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"widgets.layout.json", "widgets"},
		{"widgets.json", "widgets"},
		{"dir/widgets.layout.json", "dir/widgets"},
		{"widgets", "widgets"},
	}

	for _, tt := range tests {
		if got := stemFromLayoutPath(tt.input); got != tt.want {
			t.Errorf("stemFromLayoutPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteArtifactsSingleExplicitOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "map.svg")

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{"svg": []byte("<svg/>")},
		formats:   []string{"svg"},
		output:    out,
		stem:      "ignored",
	})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}

	if len(paths) != 1 || paths[0] != out {
		t.Fatalf("paths = %v, want [%s]", paths, out)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<svg/>" {
		t.Errorf("written data = %q", data)
	}
}

func TestWriteArtifactsMultipleFormats(t *testing.T) {
	dir := t.TempDir()
	stem := filepath.Join(dir, "widgets")

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{
			"svg":  []byte("<svg/>"),
			"html": []byte("<html/>"),
		},
		formats: []string{"svg", "html"},
		stem:    stem,
	})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}

	want := []string{stem + ".svg", stem + ".html"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Fatalf("paths = %v, want %v", paths, want)
	}
	for _, p := range want {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
	}
}

func TestWriteArtifactsMissingFormat(t *testing.T) {
	_, err := writeArtifacts(artifactWriteParams{
		artifacts: map[string][]byte{},
		formats:   []string{"svg"},
		stem:      filepath.Join(t.TempDir(), "widgets"),
	})
	if err == nil {
		t.Error("writeArtifacts should fail when an artifact is missing")
	}
}
