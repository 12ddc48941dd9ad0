package drift

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// RenderDiff returns a line diff from the deployment to the configuration,
// both rendered as indented canonical JSON. Lines starting with "+" exist only
// in the configuration, "-" only in the deployment, and two spaces mark
// unchanged context. Equal inputs produce only context lines.
func RenderDiff(configuration, generatedFields any) (string, error) {
	desired, err := prettyJSON(configuration)
	if err != nil {
		return "", fmt.Errorf("failed to render configuration: %w", err)
	}
	current, err := prettyJSON(generatedFields)
	if err != nil {
		return "", fmt.Errorf("failed to render deployment: %w", err)
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(current, desired)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		marker := "  "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			marker = "+ "
		case diffmatchpatch.DiffDelete:
			marker = "- "
		}
		for _, line := range strings.Split(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(marker)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func prettyJSON(v any) (string, error) {
	data, err := json.MarshalIndent(Normalize(v), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}
