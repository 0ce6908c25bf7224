package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"window-config-lab/internal/domain"
	"window-config-lab/internal/observability"
)

// Output file names inside the report directory.
const (
	MarkdownFile = "report.md"
	CSVFile      = "results.csv"
	JSONFile     = "top_configs.json"
)

// WriteAll writes the Markdown report, the ranked CSV and the top-N JSON
// export into dir, creating it if needed. Returns the written paths.
func WriteAll(dir string, r *Report, ranked []domain.RankedResult, topJSON int) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	js, err := RenderJSON(ranked, topJSON)
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}

	files := []struct {
		name   string
		format string
		data   []byte
	}{
		{MarkdownFile, "markdown", []byte(RenderMarkdown(r))},
		{CSVFile, "csv", []byte(RenderCSV(ranked))},
		{JSONFile, "json", js},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.name, err)
		}
		observability.RecordReport(f.format)
		paths = append(paths, path)
	}
	return paths, nil
}
