package cookies

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUnknownColumn = errors.New("unknown column")
)

const (
	ColumnName     = "name"
	ColumnValue    = "value"
	ColumnDomain   = "domain"
	ColumnPath     = "path"
	ColumnExpires  = "expires"
	ColumnHTTPOnly = "httpOnly"
	ColumnSameSite = "sameSite"
	ColumnSecure   = "secure"
	ColumnScope    = "scope"
	ColumnFrame    = "frame"
)

// Column describes one column of the cookie table.
type Column struct {
	Key      string `json:"key" yaml:"key" toml:"key"`
	Header   string `json:"header" yaml:"header" toml:"header"`
	Hideable bool   `json:"hideable" yaml:"hideable" toml:"hideable"`
}

// DefaultColumns is the column layout of the cookie table.
var DefaultColumns = []Column{
	{Key: ColumnName, Header: "Name"},
	{Key: ColumnValue, Header: "Value", Hideable: true},
	{Key: ColumnDomain, Header: "Domain", Hideable: true},
	{Key: ColumnPath, Header: "Path", Hideable: true},
	{Key: ColumnExpires, Header: "Expires / Max-Age", Hideable: true},
	{Key: ColumnHTTPOnly, Header: "HttpOnly", Hideable: true},
	{Key: ColumnSameSite, Header: "SameSite", Hideable: true},
	{Key: ColumnSecure, Header: "Secure", Hideable: true},
	{Key: ColumnScope, Header: "Scope", Hideable: true},
	{Key: ColumnFrame, Header: "Frame", Hideable: true},
}

// Sorting is the active sort of the table.
type Sorting struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

// Preferences are the user's table settings.
type Preferences struct {
	Sorting *Sorting `json:"sorting,omitempty"`
	// SelectedColumns maps a column key to its visibility. Columns that are
	// not listed are visible.
	SelectedColumns map[string]bool `json:"selectedColumns,omitempty"`
}

// Validate checks that every referenced column exists.
func (p Preferences) Validate(columns []Column) error {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.Key] = true
	}
	if p.Sorting != nil && !known[p.Sorting.Key] {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, p.Sorting.Key)
	}
	for key := range p.SelectedColumns {
		if !known[key] {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, key)
		}
	}
	return nil
}

// Row is one cookie rendered as table cells.
type Row struct {
	Key    string            `json:"key"`
	Cells  map[string]string `json:"cells"`
	Cookie Cookie            `json:"cookie"`
}

// Table is the rendered cookie table.
type Table struct {
	Columns []Column `json:"columns"`
	Rows    []Row    `json:"rows"`
	Sorting *Sorting `json:"sorting,omitempty"`
}

// BuildTable lays out cookies with the given columns and preferences.
func BuildTable(list []Cookie, columns []Column, prefs Preferences) (*Table, error) {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	if err := prefs.Validate(columns); err != nil {
		return nil, err
	}

	visible := make([]Column, 0, len(columns))
	for _, c := range columns {
		if show, ok := prefs.SelectedColumns[c.Key]; ok && !show && c.Hideable {
			continue
		}
		visible = append(visible, c)
	}

	rows := make([]Row, 0, len(list))
	for _, c := range list {
		cells := make(map[string]string, len(visible))
		for _, col := range visible {
			cells[col.Key] = Cell(c, col.Key)
		}
		rows = append(rows, Row{Key: c.Key(), Cells: cells, Cookie: c})
	}

	if s := prefs.Sorting; s != nil {
		sort.SliceStable(rows, func(i, j int) bool {
			a := strings.ToLower(Cell(rows[i].Cookie, s.Key))
			b := strings.ToLower(Cell(rows[j].Cookie, s.Key))
			if s.Desc {
				return a > b
			}
			return a < b
		})
	}

	return &Table{Columns: visible, Rows: rows, Sorting: prefs.Sorting}, nil
}

// Cell renders the value of one column for a cookie.
func Cell(c Cookie, key string) string {
	switch key {
	case ColumnName:
		return c.Name
	case ColumnValue:
		return c.Value
	case ColumnDomain:
		return c.Domain
	case ColumnPath:
		return c.Path
	case ColumnExpires:
		if c.Expires == "" {
			return "Session"
		}
		return c.Expires
	case ColumnHTTPOnly:
		return check(c.HTTPOnly)
	case ColumnSameSite:
		if c.SameSite == "" {
			return ""
		}
		return strings.ToUpper(c.SameSite[:1]) + c.SameSite[1:]
	case ColumnSecure:
		return check(c.Secure)
	case ColumnScope:
		if c.FirstParty {
			return "First Party"
		}
		return "Third Party"
	case ColumnFrame:
		return c.FrameID
	}
	return ""
}

func check(b bool) string {
	if b {
		return "✓"
	}
	return ""
}
