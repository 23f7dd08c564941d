package tagger

import (
	"errors"
	"testing"
)

func TestParseTags(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantItem string
		wantErr  bool
	}{
		{
			name:     "bare object",
			text:     `{"main_category":"furniture","specific_item":"desk lamp","color":"black","material":"metal","description":"bright"}`,
			wantItem: "desk lamp",
		},
		{
			name:     "prose around object",
			text:     "Sure! Here are the tags:\n{\"specific_item\":\"bike\"}\nHope that helps.",
			wantItem: "bike",
		},
		{
			name:     "brace inside string literal",
			text:     `{"specific_item":"mug {large}","description":"says \"}\" on it"}`,
			wantItem: "mug {large}",
		},
		{
			name:     "first of two objects",
			text:     `{"specific_item":"chair"} and {"specific_item":"table"}`,
			wantItem: "chair",
		},
		{
			name:    "no object",
			text:    "I cannot see an image.",
			wantErr: true,
		},
		{
			name:    "unterminated",
			text:    `{"specific_item":"chair"`,
			wantErr: true,
		},
		{
			name:    "invalid json inside braces",
			text:    `{specific_item: chair}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTags(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTags() error = %v", err)
			}
			if got.SpecificItem != tt.wantItem {
				t.Errorf("SpecificItem = %q, want %q", got.SpecificItem, tt.wantItem)
			}
		})
	}
}

func TestParseTags_NoJSONSentinel(t *testing.T) {
	_, err := ParseTags("nothing here")
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}
