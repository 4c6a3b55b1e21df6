package findings

import "encoding/json"

// Draft carries the raw technician input for a result before it is validated
// and normalized. Method and analyte fields hold catalog identifiers; Encode
// resolves them to display names. Only the slice matching the test's area is
// consulted.
type Draft struct {
	// ResultType distinguishes negative from positive nematology findings.
	ResultType string

	Nematodes      []NematodeRow
	Virology       []VirologyRow
	Bacteriology   []BacteriologyRow
	Phytopathology []PhytopathologyRow
	EarlyDetection []EarlyDetectionRow

	// FreeForm is persisted as-is for tests whose area has no tagged variant.
	FreeForm json.RawMessage
}

// Encode validates a draft for the given area and emits the persistable
// findings variant with identifiers resolved to display names. A nil return
// means the draft is not yet complete and nothing should be persisted.
func Encode(area Area, draft Draft, lk Lookups) *Findings {
	switch area {
	case AreaNematology:
		if draft.ResultType == "negative" {
			return encodeNematologyNegative(draft, lk)
		}
		return encodeNematologyPositive(draft, lk)
	case AreaVirology:
		return encodeVirology(draft, lk)
	case AreaBacteriology:
		return encodeBacteriology(draft, lk)
	case AreaPhytopathology:
		return encodePhytopathology(draft, lk)
	case AreaEarlyDetection:
		return encodeEarlyDetection(draft)
	default:
		if len(draft.FreeForm) > 0 {
			return &Findings{Raw: append(json.RawMessage(nil), draft.FreeForm...)}
		}
		return nil
	}
}

func encodeNematologyNegative(draft Draft, lk Lookups) *Findings {
	var rows []NematodeRow
	for _, r := range draft.Nematodes {
		if r.Quantity == "" {
			continue
		}
		name := r.Name
		if name == "" {
			name = NegativeNematodeLabel
		} else {
			name = lk.AnalyteName(CategoryNematode, name)
		}
		rows = append(rows, NematodeRow{Name: name, Quantity: r.Quantity})
	}
	if len(rows) == 0 {
		return nil
	}
	return &Findings{Type: TypeNematologyNegative, Nematodes: rows}
}

func encodeNematologyPositive(draft Draft, lk Lookups) *Findings {
	var rows []NematodeRow
	for _, r := range draft.Nematodes {
		if r.Name == "" {
			continue
		}
		rows = append(rows, NematodeRow{
			Name:     lk.AnalyteName(CategoryNematode, r.Name),
			Quantity: r.Quantity,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return &Findings{Type: TypeNematologyPositive, Nematodes: rows}
}

func encodeVirology(draft Draft, lk Lookups) *Findings {
	var rows []VirologyRow
	for _, r := range draft.Virology {
		if r.Method == "" || r.Virus == "" || r.Result == "" {
			continue
		}
		rows = append(rows, VirologyRow{
			Identification: r.Identification,
			Method:         lk.MethodName(r.Method),
			Virus:          lk.AnalyteName(CategoryVirus, r.Virus),
			Result:         r.Result,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return &Findings{Type: TypeVirology, Virology: rows}
}

func encodeBacteriology(draft Draft, lk Lookups) *Findings {
	var rows []BacteriologyRow
	for _, r := range draft.Bacteriology {
		if r.Method == "" || r.Microorganism == "" || r.Result == "" {
			continue
		}
		rows = append(rows, BacteriologyRow{
			Identification: r.Identification,
			Method:         lk.MethodName(r.Method),
			Microorganism:  lk.AnalyteName(CategoryBacteria, r.Microorganism),
			Result:         r.Result,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return &Findings{Type: TypeBacteriology, Bacteriology: rows}
}

func encodePhytopathology(draft Draft, lk Lookups) *Findings {
	var rows []PhytopathologyRow
	for _, r := range draft.Phytopathology {
		if r.Microorganism == "" || !hasAnyDilution(r.Dilutions) {
			continue
		}
		rows = append(rows, PhytopathologyRow{
			Identification: r.Identification,
			Microorganism:  lk.AnalyteName(CategoryFungus, r.Microorganism),
			Dilutions:      copyStringMap(r.Dilutions),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return &Findings{Type: TypePhytopathology, Phytopathology: rows}
}

func encodeEarlyDetection(draft Draft) *Findings {
	var rows []EarlyDetectionRow
	for _, r := range draft.EarlyDetection {
		if r.SampleCode == "" || r.Identification == "" || r.Variety == "" || r.UnitsEvaluated == "" {
			continue
		}
		rows = append(rows, EarlyDetectionRow{
			SampleCode:     r.SampleCode,
			Identification: r.Identification,
			Variety:        r.Variety,
			UnitsEvaluated: r.UnitsEvaluated,
			SeverityScale:  copyStringMap(r.SeverityScale),
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return &Findings{Type: TypeEarlyDetection, EarlyDetection: rows}
}

func hasAnyDilution(dilutions map[string]string) bool {
	for _, key := range DilutionKeys {
		if dilutions[key] != "" {
			return true
		}
	}
	return false
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
