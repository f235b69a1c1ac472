package feed

import (
	"testing"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already canonical",
			input:    "https://example.com/post/123",
			expected: "https://example.com/post/123",
		},
		{
			name:     "uppercase host lowered",
			input:    "https://Example.COM/post/123",
			expected: "https://example.com/post/123",
		},
		{
			name:     "fragment dropped",
			input:    "https://example.com/post/123#comments",
			expected: "https://example.com/post/123",
		},
		{
			name:     "tracking params dropped",
			input:    "https://example.com/post?utm_source=feed&utm_medium=rss&id=5",
			expected: "https://example.com/post?id=5",
		},
		{
			name:     "all params tracking",
			input:    "https://example.com/post?utm_source=feed&fbclid=abc",
			expected: "https://example.com/post",
		},
		{
			name:     "trailing slash trimmed",
			input:    "https://example.com/post/123/",
			expected: "https://example.com/post/123",
		},
		{
			name:     "root path kept",
			input:    "https://example.com/",
			expected: "https://example.com/",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  https://example.com/post ",
			expected: "https://example.com/post",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := CanonicalURL(tt.input)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestCanonicalURLStable(t *testing.T) {
	variants := []string{
		"https://example.com/post/123?utm_source=a",
		"https://EXAMPLE.com/post/123/",
		"https://example.com/post/123#section",
	}

	first, err := CanonicalURL(variants[0])
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	for _, v := range variants[1:] {
		canonical, err := CanonicalURL(v)
		if err != nil {
			t.Fatalf("Expected no error for %q, got %v", v, err)
		}
		if canonical != first {
			t.Errorf("Expected %q to canonicalize to %q, got %q", v, first, canonical)
		}
	}
}
