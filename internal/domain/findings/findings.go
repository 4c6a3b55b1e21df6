package findings

import (
	"encoding/json"
	"fmt"
)

// Findings variant tags. The tag determines the exact payload shape.
const (
	TypeNematologyNegative = "nematologia_negative"
	TypeNematologyPositive = "nematologia_positive"
	TypeVirology           = "virologia"
	TypeBacteriology       = "bacteriologia"
	TypePhytopathology     = "fitopatologia"
	TypeEarlyDetection     = "deteccion_precoz"
)

// NegativeNematodeLabel is the fixed pathogen name used for negative
// nematology findings when the technician leaves the name blank.
const NegativeNematodeLabel = "Nematodos no fitoparásitos (benéficos)"

// Dilution keys for phytopathology rows.
var DilutionKeys = []string{"10-1", "10-2", "10-3"}

// SeverityKeys for early-detection rows.
var SeverityKeys = []string{"0", "1", "2", "3"}

type NematodeRow struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

type VirologyRow struct {
	Identification string `json:"identification"`
	Method         string `json:"method"`
	Virus          string `json:"virus"`
	Result         string `json:"result"`
}

type BacteriologyRow struct {
	Identification string `json:"identification"`
	Method         string `json:"method"`
	Microorganism  string `json:"microorganism"`
	Result         string `json:"result"`
}

type PhytopathologyRow struct {
	Identification string            `json:"identification"`
	Microorganism  string            `json:"microorganism"`
	Dilutions      map[string]string `json:"dilutions"`
}

type EarlyDetectionRow struct {
	SampleCode     string            `json:"sample_code"`
	Identification string            `json:"identification"`
	Variety        string            `json:"variety"`
	UnitsEvaluated string            `json:"units_evaluated"`
	SeverityScale  map[string]string `json:"severity_scale"`
}

// Findings is the closed tagged union persisted on a Result. Exactly one of
// the row slices is populated, selected by Type. Payloads whose type tag does
// not match a known variant are preserved opaquely in Raw so they survive a
// round trip unchanged.
type Findings struct {
	Type string

	Nematodes      []NematodeRow
	Virology       []VirologyRow
	Bacteriology   []BacteriologyRow
	Phytopathology []PhytopathologyRow
	EarlyDetection []EarlyDetectionRow

	Raw json.RawMessage
}

func (f *Findings) MarshalJSON() ([]byte, error) {
	switch f.Type {
	case TypeNematologyNegative, TypeNematologyPositive:
		return json.Marshal(struct {
			Type      string        `json:"type"`
			Nematodes []NematodeRow `json:"nematodes"`
		}{f.Type, f.Nematodes})
	case TypeVirology:
		return json.Marshal(struct {
			Type  string        `json:"type"`
			Tests []VirologyRow `json:"tests"`
		}{f.Type, f.Virology})
	case TypeBacteriology:
		return json.Marshal(struct {
			Type  string            `json:"type"`
			Tests []BacteriologyRow `json:"tests"`
		}{f.Type, f.Bacteriology})
	case TypePhytopathology:
		return json.Marshal(struct {
			Type  string              `json:"type"`
			Tests []PhytopathologyRow `json:"tests"`
		}{f.Type, f.Phytopathology})
	case TypeEarlyDetection:
		return json.Marshal(struct {
			Type  string              `json:"type"`
			Tests []EarlyDetectionRow `json:"tests"`
		}{f.Type, f.EarlyDetection})
	default:
		// Unknown variant or free-form payload: write back what was read.
		if len(f.Raw) > 0 {
			return f.Raw, nil
		}
		return nil, fmt.Errorf("findings: cannot marshal empty variant %q", f.Type)
	}
}

func (f *Findings) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("findings: invalid payload: %w", err)
	}

	*f = Findings{Type: head.Type}

	switch head.Type {
	case TypeNematologyNegative, TypeNematologyPositive:
		var v struct {
			Nematodes []NematodeRow `json:"nematodes"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("findings: decode %s: %w", head.Type, err)
		}
		f.Nematodes = v.Nematodes
	case TypeVirology:
		var v struct {
			Tests []VirologyRow `json:"tests"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("findings: decode %s: %w", head.Type, err)
		}
		f.Virology = v.Tests
	case TypeBacteriology:
		var v struct {
			Tests []BacteriologyRow `json:"tests"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("findings: decode %s: %w", head.Type, err)
		}
		f.Bacteriology = v.Tests
	case TypePhytopathology:
		var v struct {
			Tests []PhytopathologyRow `json:"tests"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("findings: decode %s: %w", head.Type, err)
		}
		f.Phytopathology = v.Tests
	case TypeEarlyDetection:
		var v struct {
			Tests []EarlyDetectionRow `json:"tests"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("findings: decode %s: %w", head.Type, err)
		}
		f.EarlyDetection = v.Tests
	default:
		// Unknown tag: keep the payload opaque, never drop it.
		f.Raw = append(json.RawMessage(nil), data...)
	}

	return nil
}
