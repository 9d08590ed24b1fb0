package models

import "fmt"

// Layout is the column set of a persisted dataset.
// Keyed layouts carry job_id and are deduplicated on merge; the others are append-only.
type Layout struct {
	Name    string
	Columns []string
	Keyed   bool
}

var (
	// LayoutLatest drops description to keep the log small.
	LayoutLatest = Layout{
		Name: "latest",
		Columns: []string{
			ColTimestamp, ColJobID, ColTitle, ColCompany,
			ColCompanyLink, ColDate, ColDateText, ColLink,
		},
		Keyed: true,
	}

	// LayoutLegacy matches logs written before postings carried an id.
	LayoutLegacy = Layout{
		Name: "legacy",
		Columns: []string{
			ColTimestamp, ColTitle, ColCompany, ColCompanyLink,
			ColDateText, ColLink, ColDescription,
		},
		Keyed: false,
	}
)

// LayoutByName resolves a configured layout name. Empty means latest.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case "", LayoutLatest.Name:
		return LayoutLatest, nil
	case LayoutLegacy.Name:
		return LayoutLegacy, nil
	}
	return Layout{}, fmt.Errorf("unknown layout %q (want %q or %q)", name, LayoutLatest.Name, LayoutLegacy.Name)
}

// Has reports whether the layout includes col.
func (l Layout) Has(col string) bool {
	for _, c := range l.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Row renders a record as the layout's cells, in column order.
func (l Layout) Row(r JobRecord) []string {
	row := make([]string, len(l.Columns))
	for i, col := range l.Columns {
		row[i] = r.Field(col)
	}
	return row
}

// Project returns a copy of r holding only the layout's columns.
func (l Layout) Project(r JobRecord) JobRecord {
	var out JobRecord
	for _, col := range l.Columns {
		if col == ColDescription && r.Description == nil {
			continue
		}
		out.SetField(col, r.Field(col))
	}
	return out
}
