package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("조합설립인가를 받으려면", 4); got != "조합설립..." {
		t.Errorf("hangul truncation: got %s", got)
	}
}

func TestRuneLen(t *testing.T) {
	if RuneLen("제24조") != 4 {
		t.Errorf("RuneLen(제24조) = %d, want 4", RuneLen("제24조"))
	}
}
