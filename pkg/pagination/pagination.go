package pagination

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 30
	MaxLimit     = 365
)

var ErrInvalidLimit = errors.New("limit must be a positive integer")

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// Window describes the default and ceiling for one endpoint's limit.
type Window struct {
	Default int
	Max     int
}

var (
	// Journal covers mood and gratitude history.
	Journal = Window{Default: DefaultLimit, Max: MaxLimit}
	Chat    = Window{Default: 50, Max: 500}
	Inbox   = Window{Default: 50, Max: 200}
)

// FromContext reads ?limit= and ?offset=. A missing limit takes the window
// default and an oversized one is clamped to the window max. A malformed or
// non-positive limit is rejected.
func FromContext(c echo.Context, w Window) (Params, error) {
	p := Params{Limit: w.Default}

	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Params{}, ErrInvalidLimit
		}
		p.Limit = limit
	}
	if p.Limit > w.Max {
		p.Limit = w.Max
	}

	if raw := c.QueryParam("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err == nil && offset > 0 {
			p.Offset = offset
		}
	}
	return p, nil
}

// HasNext returns true if there are more results after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Limit < total
}

// Response wraps a paginated API response.
type Response struct {
	Data    interface{} `json:"data"`
	Total   int         `json:"total"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	HasMore bool        `json:"has_more"`
}

func NewResponse(data interface{}, total int, p Params) *Response {
	return &Response{
		Data:    data,
		Total:   total,
		Limit:   p.Limit,
		Offset:  p.Offset,
		HasMore: p.HasNext(total),
	}
}
