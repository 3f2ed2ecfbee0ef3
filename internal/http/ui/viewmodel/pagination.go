package viewmodel

import (
	"net/url"
	"strconv"
)

// windowThreshold is the page count up to which every page is listed.
const windowThreshold = 5

// ControlKind tags a PageControl.
type ControlKind string

const (
	ControlPage     ControlKind = "page"
	ControlEllipsis ControlKind = "ellipsis"
)

// PageControl is one entry of a pagination bar: a page number or an ellipsis.
type PageControl struct {
	Kind   ControlKind `json:"kind"`
	Number int         `json:"number,omitempty"`
	Active bool        `json:"active,omitempty"`
	URL    string      `json:"url,omitempty"`
}

// PageLink returns a page control for page n.
func PageLink(n int) PageControl { return PageControl{Kind: ControlPage, Number: n} }

// Ellipsis returns a gap control.
func Ellipsis() PageControl { return PageControl{Kind: ControlEllipsis} }

// IsEllipsis reports whether c is a gap.
func (c PageControl) IsEllipsis() bool { return c.Kind == ControlEllipsis }

// PageState is the current page and page count of a list view.
type PageState struct {
	Current int
	Total   int
}

// Clamp brings the state into its valid domain: Total >= 0 and
// 1 <= Current <= max(Total, 1).
func (s PageState) Clamp() PageState {
	if s.Total < 0 {
		s.Total = 0
	}
	if s.Current < 1 {
		s.Current = 1
	}
	if upper := max(s.Total, 1); s.Current > upper {
		s.Current = upper
	}
	return s
}

// BuildPageWindow returns the controls to render for the given page, left to right.
// Up to five pages are all listed; beyond that the first and last pages are
// always shown around a window of current-1..current+1, with ellipses for gaps.
// Out-of-range input is clamped; total <= 0 yields no controls.
func BuildPageWindow(current, total int) []PageControl {
	st := PageState{Current: current, Total: total}.Clamp()
	if st.Total == 0 {
		return []PageControl{}
	}

	if st.Total <= windowThreshold {
		controls := make([]PageControl, 0, st.Total)
		for i := 1; i <= st.Total; i++ {
			controls = append(controls, PageLink(i))
		}
		return controls
	}

	controls := make([]PageControl, 0, 7)
	controls = append(controls, PageLink(1))
	if st.Current > 3 {
		controls = append(controls, Ellipsis())
	}

	start := max(st.Current-1, 2)
	// Current+1 would overflow at MaxInt.
	end := min(st.Current, st.Total-2) + 1
	for i := start; i <= end; i++ {
		controls = append(controls, PageLink(i))
	}

	if st.Current < st.Total-2 {
		controls = append(controls, Ellipsis())
	}
	controls = append(controls, PageLink(st.Total))
	return controls
}

// Pagination contains pagination metadata for list views.
type Pagination struct {
	Page       int           `json:"current"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total"`
	TotalCount int           `json:"count"`
	HasPrev    bool          `json:"has_prev"`
	HasNext    bool          `json:"has_next"`
	PrevURL    string        `json:"prev_url,omitempty"`
	NextURL    string        `json:"next_url,omitempty"`
	Controls   []PageControl `json:"controls"`
}

// PaginationInput groups the values needed to build a Pagination.
type PaginationInput struct {
	State      PageState
	PageSize   int
	TotalCount int
	// BasePath and Query are used to build per-control URLs; the "page" key is overwritten.
	BasePath string
	Query    url.Values
}

// NewPagination builds the list view model, marking the active control and
// attaching URLs when BasePath is set.
func NewPagination(in PaginationInput) Pagination {
	st := in.State.Clamp()
	p := Pagination{
		Page:       st.Current,
		PageSize:   in.PageSize,
		TotalPages: st.Total,
		TotalCount: in.TotalCount,
		HasPrev:    st.Current > 1,
		HasNext:    st.Current < st.Total,
		Controls:   BuildPageWindow(st.Current, st.Total),
	}

	for i := range p.Controls {
		c := &p.Controls[i]
		if c.IsEllipsis() {
			continue
		}
		c.Active = c.Number == st.Current
		c.URL = pageURL(in.BasePath, in.Query, c.Number)
	}
	if p.HasPrev {
		p.PrevURL = pageURL(in.BasePath, in.Query, st.Current-1)
	}
	if p.HasNext { // Current < Total, so Current+1 cannot overflow.
		p.NextURL = pageURL(in.BasePath, in.Query, st.Current+1)
	}
	return p
}

func pageURL(base string, query url.Values, page int) string {
	if base == "" {
		return ""
	}
	q := url.Values{}
	for k, vs := range query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set("page", strconv.Itoa(page))
	return base + "?" + q.Encode()
}
