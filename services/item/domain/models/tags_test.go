package models

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"nil", nil, []string{}, false},
		{"lower-cases and trims", []string{" Retro ", "VINYL"}, []string{"retro", "vinyl"}, false},
		{"dedupes keeping first", []string{"a", "B", "A", "b"}, []string{"a", "b"}, false},
		{"empty tag", []string{"ok", "  "}, nil, true},
		{"tag too long", []string{strings.Repeat("t", 31)}, nil, true},
		{"too many tags", numbered(11), nil, true},
		{"duplicates do not count towards limit", append(numbered(10), "tag0"), numbered(10), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTags(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeTags(t *testing.T) {
	t.Run("appends new suggestions", func(t *testing.T) {
		got := MergeTags([]string{"a"}, []string{"B", "a", ""})
		if !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("stops at limit", func(t *testing.T) {
		got := MergeTags(numbered(9), []string{"x", "y"})
		if len(got) != MaxTags || got[9] != "x" {
			t.Fatalf("got %v", got)
		}
	})
}

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("tag%d", i)
	}
	return out
}
