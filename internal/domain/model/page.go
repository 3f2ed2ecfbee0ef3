//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"net/url"
	"strconv"
)

// DefaultPageSize matches the TOM API's default page size.
const DefaultPageSize = 10

// MaxPageSize bounds page_size requests forwarded upstream.
const MaxPageSize = 100

// Page is the TOM API's paginated envelope.
// Current and Total are 1-based page number and page count.
type Page[T any] struct {
	Count    int  `json:"count"`
	Next     *int `json:"next"`
	Previous *int `json:"previous"`
	Current  int  `json:"current"`
	Total    int  `json:"total"`
	Results  []T  `json:"results"`
}

// ListOptions controls paging and free-text search for list calls.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
}

// Normalize clamps paging values into the accepted range.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.PageSize > MaxPageSize {
		o.PageSize = MaxPageSize
	}
	return o
}

// Values encodes the options as TOM API query parameters.
func (o ListOptions) Values() url.Values {
	o = o.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(o.Page))
	v.Set("page_size", strconv.Itoa(o.PageSize))
	if o.Search != "" {
		v.Set("search", o.Search)
	}
	return v
}
