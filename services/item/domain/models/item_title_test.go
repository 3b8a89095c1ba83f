package models

import (
	"errors"
	"strings"
	"testing"

	itemdomain "github.com/secondlife-exchange/exchange/services/item/domain"
)

func TestNewItemTitle(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"single character", "a", false},
		{"120 characters", strings.Repeat("x", 120), false},
		{"120 multibyte runes", strings.Repeat("é", 120), false},
		{"empty", "", true},
		{"121 characters", strings.Repeat("x", 121), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, err := NewItemTitle(tt.in)
			if tt.wantErr {
				if !errors.Is(err, itemdomain.ErrInvalidItem) {
					t.Fatalf("expected ErrInvalidItem, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if title.String() != tt.in {
				t.Fatalf("expected %q, got %q", tt.in, title.String())
			}
		})
	}
}

func TestItemTitle_Contains(t *testing.T) {
	if !ItemTitle("Vintage Camera").Contains("camera") {
		t.Fatal("expected case-insensitive match")
	}
	if ItemTitle("Vintage Camera").Contains("bike") {
		t.Fatal("unexpected match")
	}
}
