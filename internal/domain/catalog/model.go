package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/findings"
)

// TestCatalogEntry maps to the test_catalog table. The Area string is free
// text maintained by lab admins; Area() classifies it once at the boundary.
type TestCatalogEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	AreaName  string    `db:"area" json:"area"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Area returns the normalized analysis area for this entry.
func (t *TestCatalogEntry) Area() findings.Area {
	return findings.ClassifyArea(t.AreaName)
}

// Method maps to the method table (laboratory techniques: ELISA, RT-PCR, ...).
type Method struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Analyte maps to the analyte table. Category is one of virus, bacteria,
// fungus, nematode.
type Analyte struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

var validAnalyteCategories = map[string]bool{
	findings.CategoryVirus:    true,
	findings.CategoryBacteria: true,
	findings.CategoryFungus:   true,
	findings.CategoryNematode: true,
}

// ValidCategory reports whether s is a known analyte category.
func ValidCategory(s string) bool {
	return validAnalyteCategories[s]
}
