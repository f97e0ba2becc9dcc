package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlehnert/railgraph/pkg/pipeline"
)

// artifactWriteParams bundles the inputs for writeArtifacts.
type artifactWriteParams struct {
	artifacts map[string][]byte // rendered outputs keyed by format
	formats   []string          // requested formats, in order
	output    string            // user-provided output path (may be empty)
	stem      string            // fallback file-name stem when output is empty
}

// writeArtifacts writes each requested format to its own file and returns
// the written paths. With a single format and an explicit output path the
// artifact goes exactly there; otherwise paths are derived as <base>.<format>.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	base := basePath(p.output, p.stem)

	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			return nil, fmt.Errorf("no %s artifact was produced", format)
		}

		path := base + "." + format
		if len(p.formats) == 1 && p.output != "" {
			path = p.output
		}

		if err := writeFile(path, data); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the base output path from the output path and fallback stem.
// If output is empty, the stem is used. If output carries a known format
// extension (.svg, .html, ...), that extension is stripped so per-format
// suffixes can be appended.
func basePath(output, stem string) string {
	if output == "" {
		return stem
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// stemFromLayoutPath derives an output stem from a layout file path,
// stripping the ".layout.json" (or plain ".json") suffix.
func stemFromLayoutPath(path string) string {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return strings.TrimSuffix(stem, ".layout")
}

// writeFile writes data to path, with "-" meaning stdout.
func writeFile(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = out.Write(data)
	return err
}

// nopCloser wraps an io.Writer with a no-op Close method.
// It is used to make os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

// Close implements io.Closer with a no-op.
func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path.
// If path is "-", it returns os.Stdout wrapped in nopCloser.
// Otherwise, it creates the file at path, overwriting if it exists.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
