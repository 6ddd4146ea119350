package google

import (
	"fmt"
	"strconv"
	"strings"

	"salesdash/internal/core"
)

// parseValues converts a values matrix (as returned by the Sheets API) into
// records. The first row names the columns; trailing empty rows are skipped.
func parseValues(values [][]interface{}) ([]core.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols := make(map[string]int, len(core.RequiredFields))
	var missing []string
	for _, name := range core.RequiredFields {
		idx := indexOf(headers, name)
		if idx == -1 {
			missing = append(missing, name)
			continue
		}
		cols[name] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected sales header: missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}

	out := make([]core.Record, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		fields := make(map[string]string, len(cols))
		for name, idx := range cols {
			fields[name] = safeGet(row, idx)
		}
		rec, err := core.ParseRecord(fields)
		if err != nil {
			// Sheet rows are 1-based and the header occupies row 1
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// toStrings renders cells verbatim. Header names are trimmed by indexOf;
// text values keep their spacing so they match the CSV source exactly.
func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch n := v.(type) {
		case float64:
			// Unformatted numeric cells arrive as float64
			out[i] = strconv.FormatFloat(n, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
