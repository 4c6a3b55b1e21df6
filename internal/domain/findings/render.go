package findings

import "encoding/json"

// Table is the rendered, display-ready form of a findings payload. For known
// variants Columns and Rows mirror the encode-time structure row for row. For
// unknown type tags Raw carries the original payload verbatim.
type Table struct {
	Type    string          `json:"type"`
	Columns []string        `json:"columns,omitempty"`
	Rows    [][]string      `json:"rows,omitempty"`
	Raw     json.RawMessage `json:"raw,omitempty"`
}

// Render decodes a persisted findings payload and produces a structured table.
// Unknown type tags render as raw JSON rather than being dropped.
func Render(raw json.RawMessage) (*Table, error) {
	var f Findings
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}

	switch f.Type {
	case TypeNematologyNegative, TypeNematologyPositive:
		t := &Table{Type: f.Type, Columns: []string{"name", "quantity"}}
		for _, r := range f.Nematodes {
			t.Rows = append(t.Rows, []string{r.Name, r.Quantity})
		}
		return t, nil
	case TypeVirology:
		t := &Table{Type: f.Type, Columns: []string{"identification", "method", "virus", "result"}}
		for _, r := range f.Virology {
			t.Rows = append(t.Rows, []string{r.Identification, r.Method, r.Virus, r.Result})
		}
		return t, nil
	case TypeBacteriology:
		t := &Table{Type: f.Type, Columns: []string{"identification", "method", "microorganism", "result"}}
		for _, r := range f.Bacteriology {
			t.Rows = append(t.Rows, []string{r.Identification, r.Method, r.Microorganism, r.Result})
		}
		return t, nil
	case TypePhytopathology:
		t := &Table{Type: f.Type, Columns: []string{"identification", "microorganism", "10-1", "10-2", "10-3"}}
		for _, r := range f.Phytopathology {
			row := []string{r.Identification, r.Microorganism}
			for _, key := range DilutionKeys {
				row = append(row, r.Dilutions[key])
			}
			t.Rows = append(t.Rows, row)
		}
		return t, nil
	case TypeEarlyDetection:
		t := &Table{Type: f.Type, Columns: []string{"sample_code", "identification", "variety", "units_evaluated", "0", "1", "2", "3"}}
		for _, r := range f.EarlyDetection {
			row := []string{r.SampleCode, r.Identification, r.Variety, r.UnitsEvaluated}
			for _, key := range SeverityKeys {
				row = append(row, r.SeverityScale[key])
			}
			t.Rows = append(t.Rows, row)
		}
		return t, nil
	default:
		// Unrecognized variant: surface the payload untouched.
		return &Table{Type: f.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}
