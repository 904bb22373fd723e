package main

import (
	"reflect"
	"testing"
)

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"n,s,m", []string{"n", "s", "m"}},
		{" n , m ,", []string{"n", "m"}},
		{"", nil},
	}
	for _, tt := range tests {
		if got := splitSizes(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitSizes(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
