package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// formatBatchResults formats the batch results in the specified format.
func formatBatchResults(results []FileResult, format string, precision int) (string, error) {
	switch format {
	case "json":
		return formatJSON(results)
	case "yaml":
		return formatYAML(results)
	case "csv":
		return formatCSV(results, precision)
	default: // text
		return formatText(results, precision)
	}
}

type batchDocument struct {
	Utterances []FileResult `json:"utterances" yaml:"utterances"`
}

// formatJSON formats results as JSON.
func formatJSON(results []FileResult) (string, error) {
	bts, err := json.MarshalIndent(batchDocument{Utterances: results}, "", "  ")
	return string(bts), err
}

// formatYAML formats results as YAML.
func formatYAML(results []FileResult) (string, error) {
	bts, err := yaml.Marshal(batchDocument{Utterances: results})
	return string(bts), err
}

// formatCSV formats results as CSV.
func formatCSV(results []FileResult, precision int) (string, error) {
	csvData := [][]string{{"file", "rank", "score", "text", "error"}}

	for _, res := range results {
		if len(res.Hypotheses) == 0 {
			csvData = append(csvData, []string{res.File, "0", "", "", res.Error})
			continue
		}
		for j, hyp := range res.Hypotheses {
			csvData = append(csvData, []string{
				res.File,
				strconv.Itoa(j),
				strconv.FormatFloat(hyp.Score, 'f', precision, 64),
				hyp.Text,
				"",
			})
		}
	}

	var output strings.Builder
	writer := csv.NewWriter(&output)
	for _, row := range csvData {
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), nil
}

// formatText formats results as plain text, one block per file.
func formatText(results []FileResult, precision int) (string, error) {
	var output strings.Builder
	for i, res := range results {
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", res.File)
		if res.Error != "" {
			fmt.Fprintf(&output, "error: %s\n", res.Error)
			continue
		}
		for _, hyp := range res.Hypotheses {
			fmt.Fprintf(&output, "%.*f\t%s\n", precision, hyp.Score, hyp.Text)
		}
	}
	return output.String(), nil
}
