// Package clients maps backend resources to typed client methods, one file
// per resource. Every method builds its endpoint path and query string, then
// delegates to the normalized API client.
package clients

import (
	"net/url"
	"strconv"
)

const (
	defaultPage = 0
	defaultSize = 10
)

// PageQuery carries list pagination. Zero values request the first page of
// ten items.
type PageQuery struct {
	Page int
	Size int
}

func (p PageQuery) values() url.Values {
	size := p.Size
	if size <= 0 {
		size = defaultSize
	}
	page := p.Page
	if page < 0 {
		page = defaultPage
	}
	v := url.Values{}
	v.Set("page", strconv.Itoa(page))
	v.Set("size", strconv.Itoa(size))
	return v
}

// setNonEmpty adds key only when value carries content, so filters never
// emit empty params.
func setNonEmpty(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

// setNonZero adds key only for positive numeric filters.
func setNonZero(v url.Values, key string, value int64) {
	if value > 0 {
		v.Set(key, strconv.FormatInt(value, 10))
	}
}
