package paging

import (
	"net/http/httptest"
	"testing"
)

func TestLimitPlusOne(t *testing.T) {
	want := int64(PageSize + 1)
	got := LimitPlusOne()
	if got != want {
		t.Errorf("LimitPlusOne() = %d, want %d", got, want)
	}
}

func TestParseStart(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"", 1},
		{"?start=26", 26},
		{"?start=0", 1},
		{"?start=-4", 1},
		{"?start=abc", 1},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/imports"+tt.query, nil)
		if got := ParseStart(r); got != tt.want {
			t.Errorf("ParseStart(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestOffset(t *testing.T) {
	if got := Offset(1); got != 0 {
		t.Errorf("Offset(1) = %d", got)
	}
	if got := Offset(26); got != 25 {
		t.Errorf("Offset(26) = %d", got)
	}
	if got := Offset(0); got != 0 {
		t.Errorf("Offset(0) = %d", got)
	}
}

func TestTrim(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		start    int
		wantRows int
		want     Page
	}{
		{
			name:     "first page without extra",
			rows:     3,
			start:    1,
			wantRows: 3,
			want:     Page{Start: 1, End: 3, PrevStart: 1, NextStart: 4},
		},
		{
			name:     "first page with extra",
			rows:     PageSize + 1,
			start:    1,
			wantRows: PageSize,
			want:     Page{Start: 1, End: PageSize, PrevStart: 1, NextStart: PageSize + 1, HasNext: true},
		},
		{
			name:     "second page, last",
			rows:     4,
			start:    PageSize + 1,
			wantRows: 4,
			want:     Page{Start: PageSize + 1, End: PageSize + 4, PrevStart: 1, NextStart: PageSize + 5, HasPrev: true},
		},
		{
			name:     "past the end",
			rows:     0,
			start:    3*PageSize + 1,
			wantRows: 0,
			want:     Page{PrevStart: 2*PageSize + 1, NextStart: 3*PageSize + 1, HasPrev: true},
		},
		{
			name:     "empty list",
			rows:     0,
			start:    1,
			wantRows: 0,
			want:     Page{PrevStart: 1, NextStart: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]int, tt.rows)
			got := Trim(&rows, tt.start)
			if len(rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(rows), tt.wantRows)
			}
			if got != tt.want {
				t.Errorf("Trim() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
