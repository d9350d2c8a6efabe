package model

import "testing"

func TestPageQueryNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   PageQuery
		want PageQuery
	}{
		{"unchanged", PageQuery{Page: 3, FilterType: 2}, PageQuery{Page: 3, FilterType: 2}},
		{"negative page", PageQuery{Page: -4, FilterType: 1}, PageQuery{Page: 0, FilterType: 1}},
		{"negative filter", PageQuery{Page: 1, FilterType: -1}, PageQuery{Page: 1, FilterType: 0}},
		{"both negative", PageQuery{Page: -1, FilterType: -9}, PageQuery{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Normalize(); got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterStatuses(t *testing.T) {
	if s, ok := FilterStatuses(FilterNone); !ok || s != nil {
		t.Errorf("FilterNone = %v, %v", s, ok)
	}
	s, ok := FilterStatuses(FilterFailed)
	if !ok || len(s) != 3 {
		t.Errorf("FilterFailed = %v, %v", s, ok)
	}
	if _, ok := FilterStatuses(42); ok {
		t.Error("expected unknown filter code to be rejected")
	}
}

func TestCommandCancellable(t *testing.T) {
	if !(Command{Status: StatusPending}).Cancellable() {
		t.Error("pending command should be cancellable")
	}
	for _, s := range []Status{StatusFetched, StatusUploaded, StatusCancelled, StatusFailed} {
		if (Command{Status: s}).Cancellable() {
			t.Errorf("status %v should not be cancellable", s)
		}
	}
}
