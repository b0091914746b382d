package tokencount

import "testing"

func TestCount_NonEmptyText(t *testing.T) {
	c := NewCounter()
	n := c.Count("What is the difference between a goroutine and an OS thread?", "llama-3.3-70b-versatile")
	if n <= 0 {
		t.Fatalf("expected positive token count, got %d", n)
	}
}

func TestCount_CachesEncoding(t *testing.T) {
	c := NewCounter()
	a := c.Count("hello world", "gemini-2.0-flash")
	b := c.Count("hello world", "gemini-2.0-flash")
	if a != b {
		t.Fatalf("counts diverged for identical input: %d vs %d", a, b)
	}
	if len(c.cache) != 1 {
		t.Fatalf("expected one cached encoding, got %d", len(c.cache))
	}
}

func TestNormalizeModel(t *testing.T) {
	cases := map[string]string{
		"meta-llama/llama-3.1-8b-instruct": "gpt-4",
		"gemini-2.0-flash":                 "gpt-4",
		"GPT-4o":                           "gpt-4",
		"something-else":                   "gpt-4",
	}
	for in, want := range cases {
		if got := normalizeModel(in); got != want {
			t.Fatalf("normalizeModel(%q) = %q, want %q", in, got, want)
		}
	}
}
