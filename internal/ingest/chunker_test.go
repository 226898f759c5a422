package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunker_Chunk(t *testing.T) {
	tests := []struct {
		name      string
		size      int
		overlap   int
		text      string
		wantCount int
	}{
		{"blank", 10, 2, "   ", 0},
		{"short", 10, 2, "정비구역", 1},
		{"exact", 4, 1, "정비구역", 1},
		{"long", 10, 0, strings.Repeat("가", 25), 3},
		{"overlap", 10, 5, strings.Repeat("가", 20), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewChunker(tt.size, tt.overlap).Chunk(tt.text)
			if len(got) != tt.wantCount {
				t.Fatalf("Chunk() = %d chunks %q, want %d", len(got), got, tt.wantCount)
			}
			for _, c := range got {
				if n := utf8.RuneCountInString(c); n > tt.size {
					t.Errorf("chunk %q has %d runes, max %d", c, n, tt.size)
				}
			}
		})
	}
}

func TestChunker_BreaksAtWhitespace(t *testing.T) {
	got := NewChunker(8, 0).Chunk("재개발정비사업 조합설립")
	if len(got) != 2 || got[0] != "재개발정비사업" || got[1] != "조합설립" {
		t.Fatalf("first chunk = %q, want break after a word", got)
	}
}

func TestNewChunker_Defaults(t *testing.T) {
	c := NewChunker(0, -1)
	if c.chunkSize != 512 || c.chunkOverlap != 0 {
		t.Errorf("NewChunker(0, -1) = %+v", c)
	}
	c = NewChunker(10, 10)
	if c.chunkOverlap != 0 {
		t.Errorf("overlap >= size should reset, got %d", c.chunkOverlap)
	}
}
