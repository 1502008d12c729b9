package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/moamenhredeen/oascontract/internal/models"
	"github.com/spf13/afero"
)

// Format represents the output format type
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ExportTestSummary writes verification results in the given format to
// filePath on fs, or to stdout when filePath is empty
func ExportTestSummary(fs afero.Fs, summary models.TestSummary, format Format, filePath string) error {
	w, closer, err := getWriter(fs, filePath)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	return WriteTestSummary(w, summary, format)
}

// WriteTestSummary writes verification results in the given format to w
func WriteTestSummary(w io.Writer, summary models.TestSummary, format Format) error {
	switch format {
	case FormatJSON:
		return exportTestJSON(w, summary)
	case FormatCSV:
		return exportTestCSV(w, summary)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func getWriter(fs afero.Fs, filePath string) (io.Writer, io.Closer, error) {
	if filePath == "" {
		return os.Stdout, nil, nil
	}

	f, err := fs.Create(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f, nil
}

func exportTestJSON(w io.Writer, summary models.TestSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func exportTestCSV(w io.Writer, summary models.TestSummary) error {
	cw := csv.NewWriter(w)

	header := []string{
		"name", "method", "path", "operation", "passed", "status_code",
		"request_field", "response_field", "error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range summary.Results {
		row := []string{
			r.Name,
			r.Method,
			r.Path,
			r.Operation,
			strconv.FormatBool(r.Passed),
			strconv.Itoa(r.StatusCode),
			failedField(r.Request),
			failedField(r.Response),
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func failedField(outcome models.ValidationOutcome) string {
	if outcome.Failure == nil {
		return ""
	}
	return outcome.Failure.Field
}

// ParseFormat parses a string into a Format, returning error if invalid
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("invalid format '%s': must be 'json' or 'csv'", s)
	}
}
