package shared

// SortDirection is the ordering direction for list queries
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Filter carries common list-query parameters: pagination and ordering.
// Repositories translate it to the underlying store's query syntax.
type Filter struct {
	Limit   int
	Offset  int
	SortBy  string
	SortDir SortDirection
}

// DefaultFilter returns a filter with sane pagination defaults
func DefaultFilter() Filter {
	return Filter{
		Limit:   20,
		Offset:  0,
		SortBy:  "created_at",
		SortDir: SortDesc,
	}
}

// Normalize clamps pagination values into valid ranges
func (f Filter) Normalize() Filter {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if f.SortDir != SortAsc && f.SortDir != SortDesc {
		f.SortDir = SortDesc
	}
	return f
}
