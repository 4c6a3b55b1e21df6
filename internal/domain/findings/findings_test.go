package findings

import (
	"encoding/json"
	"testing"
)

func testLookups() Lookups {
	return Lookups{
		Methods: map[string]string{
			"m1": "ELISA",
			"m2": "RT-PCR",
		},
		Analytes: map[string]map[string]string{
			CategoryVirus: {
				"v1": "Potato virus Y",
				"v2": "Tomato mosaic virus",
			},
			CategoryBacteria: {
				"b1": "Ralstonia solanacearum",
			},
			CategoryFungus: {
				"f1": "Fusarium oxysporum",
			},
			CategoryNematode: {
				"n1": "Meloidogyne incognita",
			},
		},
	}
}

func TestClassifyArea(t *testing.T) {
	tests := []struct {
		raw  string
		want Area
	}{
		{"Nematología", AreaNematology},
		{"NEMATOLOGIA", AreaNematology},
		{"Virología", AreaVirology},
		{"virologia molecular", AreaVirology},
		{"Bacteriología", AreaBacteriology},
		{"Fitopatología", AreaPhytopathology},
		{"Detección precoz", AreaEarlyDetection},
		{"deteccion temprana", AreaEarlyDetection},
		{"precoz", AreaEarlyDetection},
		{"Química de suelos", AreaUnknown},
		{"", AreaUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyArea(tt.raw); got != tt.want {
			t.Errorf("ClassifyArea(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestEncode_NematologyNegative_DefaultLabel(t *testing.T) {
	draft := Draft{
		ResultType: "negative",
		Nematodes:  []NematodeRow{{Name: "", Quantity: "12"}},
	}

	f := Encode(AreaNematology, draft, testLookups())
	if f == nil {
		t.Fatal("expected findings, got nil")
	}
	if f.Type != TypeNematologyNegative {
		t.Errorf("expected type %s, got %s", TypeNematologyNegative, f.Type)
	}
	if len(f.Nematodes) != 1 {
		t.Fatalf("expected 1 row, got %d", len(f.Nematodes))
	}
	if f.Nematodes[0].Name != NegativeNematodeLabel {
		t.Errorf("expected default label %q, got %q", NegativeNematodeLabel, f.Nematodes[0].Name)
	}
	if f.Nematodes[0].Quantity != "12" {
		t.Errorf("expected quantity 12, got %q", f.Nematodes[0].Quantity)
	}
}

func TestEncode_NematologyNegative_RequiresQuantity(t *testing.T) {
	draft := Draft{
		ResultType: "negative",
		Nematodes:  []NematodeRow{{Name: "", Quantity: ""}},
	}

	if f := Encode(AreaNematology, draft, testLookups()); f != nil {
		t.Errorf("expected nil for empty quantity, got %+v", f)
	}
}

func TestEncode_NematologyPositive(t *testing.T) {
	draft := Draft{
		ResultType: "positive",
		Nematodes: []NematodeRow{
			{Name: "n1", Quantity: "40"},
			{Name: "", Quantity: "10"}, // no name, does not qualify
		},
	}

	f := Encode(AreaNematology, draft, testLookups())
	if f == nil {
		t.Fatal("expected findings, got nil")
	}
	if f.Type != TypeNematologyPositive {
		t.Errorf("expected type %s, got %s", TypeNematologyPositive, f.Type)
	}
	if len(f.Nematodes) != 1 {
		t.Fatalf("expected 1 qualifying row, got %d", len(f.Nematodes))
	}
	if f.Nematodes[0].Name != "Meloidogyne incognita" {
		t.Errorf("expected resolved name, got %q", f.Nematodes[0].Name)
	}
}

func TestEncode_Virology_ResolvesAndFiltersRows(t *testing.T) {
	draft := Draft{
		Virology: []VirologyRow{
			{Identification: "leaf-1", Method: "m1", Virus: "v1", Result: "positive"},
			{Identification: "leaf-2", Method: "", Virus: "v2", Result: "negative"}, // missing method
			{Identification: "leaf-3", Method: "m2", Virus: "v9", Result: "negative"},
		},
	}

	f := Encode(AreaVirology, draft, testLookups())
	if f == nil {
		t.Fatal("expected findings, got nil")
	}
	if len(f.Virology) != 2 {
		t.Fatalf("expected 2 qualifying rows, got %d", len(f.Virology))
	}
	if f.Virology[0].Method != "ELISA" || f.Virology[0].Virus != "Potato virus Y" {
		t.Errorf("expected resolved names, got %+v", f.Virology[0])
	}
	// Unresolvable analyte keeps its raw ID rather than dropping the row.
	if f.Virology[1].Virus != "v9" {
		t.Errorf("expected raw ID fallback v9, got %q", f.Virology[1].Virus)
	}
}

func TestEncode_Bacteriology(t *testing.T) {
	draft := Draft{
		Bacteriology: []BacteriologyRow{
			{Identification: "stem-1", Method: "m2", Microorganism: "b1", Result: "positive"},
		},
	}

	f := Encode(AreaBacteriology, draft, testLookups())
	if f == nil {
		t.Fatal("expected findings, got nil")
	}
	if f.Type != TypeBacteriology {
		t.Errorf("expected type %s, got %s", TypeBacteriology, f.Type)
	}
	if f.Bacteriology[0].Microorganism != "Ralstonia solanacearum" {
		t.Errorf("expected resolved microorganism, got %q", f.Bacteriology[0].Microorganism)
	}
}

func TestEncode_Phytopathology_RequiresDilution(t *testing.T) {
	draft := Draft{
		Phytopathology: []PhytopathologyRow{
			{Identification: "root-1", Microorganism: "f1", Dilutions: map[string]string{"10-1": "3"}},
			{Identification: "root-2", Microorganism: "f1", Dilutions: map[string]string{}},
			{Identification: "root-3", Microorganism: "", Dilutions: map[string]string{"10-2": "1"}},
		},
	}

	f := Encode(AreaPhytopathology, draft, testLookups())
	if f == nil {
		t.Fatal("expected findings, got nil")
	}
	if len(f.Phytopathology) != 1 {
		t.Fatalf("expected 1 qualifying row, got %d", len(f.Phytopathology))
	}
	if f.Phytopathology[0].Microorganism != "Fusarium oxysporum" {
		t.Errorf("expected resolved microorganism, got %q", f.Phytopathology[0].Microorganism)
	}
}

func TestEncode_EarlyDetection_RequiresAllFields(t *testing.T) {
	draft := Draft{
		EarlyDetection: []EarlyDetectionRow{
			{SampleCode: "24-01", Identification: "plot A", Variety: "Cabernet", UnitsEvaluated: "30",
				SeverityScale: map[string]string{"0": "25", "3": "5"}},
			{SampleCode: "24-02", Identification: "", Variety: "Merlot", UnitsEvaluated: "20"},
		},
	}

	f := Encode(AreaEarlyDetection, draft, testLookups())
	if f == nil {
		t.Fatal("expected findings, got nil")
	}
	if len(f.EarlyDetection) != 1 {
		t.Fatalf("expected 1 qualifying row, got %d", len(f.EarlyDetection))
	}
}

func TestEncode_UnknownArea_FreeForm(t *testing.T) {
	draft := Draft{FreeForm: json.RawMessage(`{"notes":"pH 6.2"}`)}

	f := Encode(AreaUnknown, draft, testLookups())
	if f == nil {
		t.Fatal("expected free-form findings, got nil")
	}
	if f.Type != "" {
		t.Errorf("expected empty type for free-form, got %q", f.Type)
	}

	out, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"notes":"pH 6.2"}` {
		t.Errorf("expected free-form payload preserved, got %s", out)
	}
}

func TestEncode_UnknownArea_Empty(t *testing.T) {
	if f := Encode(AreaUnknown, Draft{}, testLookups()); f != nil {
		t.Errorf("expected nil for empty free-form draft, got %+v", f)
	}
}

func TestRoundTrip_AllVariants(t *testing.T) {
	lk := testLookups()

	tests := []struct {
		name    string
		area    Area
		draft   Draft
		rows    int
		columns int
	}{
		{
			name:    "nematology negative",
			area:    AreaNematology,
			draft:   Draft{ResultType: "negative", Nematodes: []NematodeRow{{Quantity: "8"}}},
			rows:    1,
			columns: 2,
		},
		{
			name: "nematology positive",
			area: AreaNematology,
			draft: Draft{ResultType: "positive", Nematodes: []NematodeRow{
				{Name: "n1", Quantity: "40"},
				{Name: "Pratylenchus", Quantity: "12"},
			}},
			rows:    2,
			columns: 2,
		},
		{
			name: "virology",
			area: AreaVirology,
			draft: Draft{Virology: []VirologyRow{
				{Identification: "leaf-1", Method: "m1", Virus: "v1", Result: "positive"},
			}},
			rows:    1,
			columns: 4,
		},
		{
			name: "bacteriology",
			area: AreaBacteriology,
			draft: Draft{Bacteriology: []BacteriologyRow{
				{Identification: "stem-1", Method: "m2", Microorganism: "b1", Result: "negative"},
			}},
			rows:    1,
			columns: 4,
		},
		{
			name: "phytopathology",
			area: AreaPhytopathology,
			draft: Draft{Phytopathology: []PhytopathologyRow{
				{Identification: "root-1", Microorganism: "f1", Dilutions: map[string]string{"10-1": "3", "10-3": "1"}},
			}},
			rows:    1,
			columns: 5,
		},
		{
			name: "early detection",
			area: AreaEarlyDetection,
			draft: Draft{EarlyDetection: []EarlyDetectionRow{
				{SampleCode: "24-01", Identification: "plot A", Variety: "Cabernet", UnitsEvaluated: "30",
					SeverityScale: map[string]string{"0": "25", "1": "3", "2": "1", "3": "1"}},
			}},
			rows:    1,
			columns: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Encode(tt.area, tt.draft, lk)
			if f == nil {
				t.Fatal("expected findings, got nil")
			}

			raw, err := json.Marshal(f)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			table, err := Render(raw)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if table.Type != f.Type {
				t.Errorf("expected type %s, got %s", f.Type, table.Type)
			}
			if len(table.Rows) != tt.rows {
				t.Errorf("expected %d rows, got %d", tt.rows, len(table.Rows))
			}
			if len(table.Columns) != tt.columns {
				t.Errorf("expected %d columns, got %d", tt.columns, len(table.Columns))
			}
			for i, row := range table.Rows {
				if len(row) != len(table.Columns) {
					t.Errorf("row %d has %d cells, expected %d", i, len(row), len(table.Columns))
				}
			}
		})
	}
}

func TestRoundTrip_NamesResolvedExactlyOnce(t *testing.T) {
	lk := testLookups()
	draft := Draft{Virology: []VirologyRow{
		{Identification: "leaf-1", Method: "m1", Virus: "v1", Result: "positive"},
	}}

	f := Encode(AreaVirology, draft, lk)
	raw, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Findings
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Virology[0].Method != "ELISA" {
		t.Errorf("expected method name preserved, got %q", decoded.Virology[0].Method)
	}
	if decoded.Virology[0].Virus != "Potato virus Y" {
		t.Errorf("expected virus name preserved, got %q", decoded.Virology[0].Virus)
	}

	// A second marshal/unmarshal cycle must not change anything.
	raw2, err := json.Marshal(&decoded)
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if string(raw) != string(raw2) {
		t.Errorf("round trip not stable:\n%s\n%s", raw, raw2)
	}
}

func TestRender_UnknownTypeFallsBackToRaw(t *testing.T) {
	raw := json.RawMessage(`{"type":"micologia","cultures":[{"medium":"PDA"}]}`)

	table, err := Render(raw)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if table.Type != "micologia" {
		t.Errorf("expected type micologia, got %q", table.Type)
	}
	if len(table.Rows) != 0 {
		t.Errorf("expected no structured rows for unknown type")
	}
	if string(table.Raw) != string(raw) {
		t.Errorf("expected raw payload preserved, got %s", table.Raw)
	}
}

func TestRender_InvalidJSON(t *testing.T) {
	if _, err := Render(json.RawMessage(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestUnmarshal_UnknownTagPreserved(t *testing.T) {
	raw := []byte(`{"type":"micologia","cultures":[1,2,3]}`)

	var f Findings
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Type != "micologia" {
		t.Errorf("expected type micologia, got %q", f.Type)
	}

	out, err := json.Marshal(&f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != string(raw) {
		t.Errorf("expected unknown payload preserved verbatim:\n%s\n%s", raw, out)
	}
}
