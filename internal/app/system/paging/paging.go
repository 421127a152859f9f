// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// PageSize is the default number of rows shown in paged lists.
// Keep this as an int because most call sites add/subtract and then
// cast to int64 for Mongo Find().SetLimit().
const PageSize = 25

// LimitPlusOne returns PageSize+1 as int64 for look‑ahead pagination
// (fetch one extra document to detect hasNext).
func LimitPlusOne() int64 { return int64(PageSize + 1) }

// ParseStart extracts the human-friendly "start" query parameter (1-based index).
// Returns 1 if not present or invalid.
func ParseStart(r *http.Request) int {
	s := query.Get(r, "start")
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Offset converts a 1-based start into a Mongo skip value.
func Offset(start int) int64 {
	if start < 1 {
		return 0
	}
	return int64(start - 1)
}

// Page holds the display range and links of one offset page.
type Page struct {
	Start     int // 1-based start index (0 if no results)
	End       int // 1-based end index (0 if no results)
	PrevStart int // start value for previous page link
	NextStart int // start value for next page link
	HasPrev   bool
	HasNext   bool
}

// Trim cuts a look-ahead fetch of PageSize+1 rows down to PageSize and
// computes the page around it.
func Trim[T any](rows *[]T, start int) Page {
	return trimWithSize(rows, start, PageSize)
}

func trimWithSize[T any](rows *[]T, start, pageSize int) Page {
	if start < 1 {
		start = 1
	}
	hasNext := false
	if len(*rows) > pageSize {
		*rows = (*rows)[:pageSize]
		hasNext = true
	}

	prevStart := start - pageSize
	if prevStart < 1 {
		prevStart = 1
	}
	shown := len(*rows)
	if shown == 0 {
		return Page{PrevStart: prevStart, NextStart: start, HasPrev: start > 1}
	}
	return Page{
		Start:     start,
		End:       start + shown - 1,
		PrevStart: prevStart,
		NextStart: start + shown,
		HasPrev:   start > 1,
		HasNext:   hasNext,
	}
}
