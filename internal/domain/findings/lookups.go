package findings

// Analyte categories used as lookup keys.
const (
	CategoryVirus    = "virus"
	CategoryBacteria = "bacteria"
	CategoryFungus   = "fungus"
	CategoryNematode = "nematode"
)

// Lookups holds the reference tables used to resolve method and analyte
// identifiers to display names at encode time. Resolution is one-directional:
// once a name is substituted the identifier is not retained, so callers must
// load the tables fully before encoding.
type Lookups struct {
	Methods  map[string]string            // method id -> name
	Analytes map[string]map[string]string // category -> analyte id -> name
}

// MethodName resolves a method ID to its display name. The raw ID is returned
// unchanged when resolution fails, so rows are never dropped.
func (l Lookups) MethodName(id string) string {
	if name, ok := l.Methods[id]; ok && name != "" {
		return name
	}
	return id
}

// AnalyteName resolves an analyte ID within a category to its display name,
// falling back to the raw ID.
func (l Lookups) AnalyteName(category, id string) string {
	if byID, ok := l.Analytes[category]; ok {
		if name, ok := byID[id]; ok && name != "" {
			return name
		}
	}
	return id
}
