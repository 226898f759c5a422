package keyword

import (
	"reflect"
	"testing"
)

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		max   int
		want  []string
	}{
		{
			name:  "vocabulary first then words",
			query: "조합설립인가 절차",
			max:   5,
			want:  []string{"조합", "인가", "조합설립인가", "절차"},
		},
		{
			name:  "article numbers are terms",
			query: "도시정비법 제24조의2 내용",
			max:   5,
			want:  []string{"제24조의2", "도시정비법", "내용"},
		},
		{
			name:  "cap applies",
			query: "재개발 재건축 조합 분담금 현금청산 빈집",
			max:   3,
			want:  []string{"재개발", "재건축", "조합"},
		},
		{
			name:  "typo corrected to vocabulary",
			query: "제개발 요건",
			max:   5,
			want:  []string{"제개발", "재개발", "요건"},
		},
		{
			name:  "non hangul falls back to words",
			query: "LH 공공 x",
			max:   5,
			want:  []string{"공공"},
		},
		{
			name:  "latin only",
			query: "Zoning Permit",
			max:   5,
			want:  []string{"zoning", "permit"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTerms(tt.query, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTerms(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"재개발", "재개발", 0},
		{"제개발", "재개발", 1},
		{"재개발", "재건축", 2},
		{"", "조합", 2},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := EditDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("EditDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
