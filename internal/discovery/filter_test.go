package discovery

import (
	"testing"
)

func TestFilter_FilterByName(t *testing.T) {
	filter := NewFilter()

	tests := []struct {
		name     string
		files    []string
		pattern  string
		expected int // Expected number of matches
	}{
		{
			name:     "empty pattern returns all",
			files:    []string{"user-test.js", "payment-test.js", "order-test.js"},
			pattern:  "",
			expected: 3,
		},
		{
			name:     "wildcard pattern matches suffix",
			files:    []string{"user-test.js", "payment-test.js", "order-test.js"},
			pattern:  "*user-test.js",
			expected: 1,
		},
		{
			name:     "wildcard pattern matches substring",
			files:    []string{"user-test.js", "payment-test.js", "order-test.js", "payment-service-test.js"},
			pattern:  "*payment*",
			expected: 2,
		},
		{
			name:     "simple contains match",
			files:    []string{"user-test.js", "payment-test.js", "order-test.js"},
			pattern:  "payment",
			expected: 1,
		},
		{
			name:     "no matches",
			files:    []string{"user-test.js", "payment-test.js"},
			pattern:  "*nonexistent*",
			expected: 0,
		},
		{
			name:     "full path with wildcard",
			files:    []string{"/app/tests/unit/user-test.js", "/app/tests/unit/payment-test.js"},
			pattern:  "*user-test.js",
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.FilterByName(tt.files, tt.pattern)
			if len(result) != tt.expected {
				t.Errorf("expected %d matches, got %d", tt.expected, len(result))
			}
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	filter := NewFilter()

	tests := []struct {
		label   string
		pattern string
		want    bool
	}{
		{"Checkout > applies coupon", "coupon", true},
		{"Checkout > applies coupon", "Checkout*coupon", true},
		{"Checkout > applies coupon", "*refund*", false},
		{"Checkout > applies coupon", "*", true},
		{"Checkout > applies coupon", "Checkout ? applies coupon", true},
		{"Checkout > applies coupon", "?heckout", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			if got := filter.Matches(tt.label, tt.pattern); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.label, tt.pattern, got, tt.want)
			}
		})
	}
}

func TestFilter_FilterByName_EdgeCases(t *testing.T) {
	filter := NewFilter()

	t.Run("empty file list", func(t *testing.T) {
		result := filter.FilterByName([]string{}, "*-test.js")
		if len(result) != 0 {
			t.Errorf("expected empty result, got %d items", len(result))
		}
	})

	t.Run("pattern with multiple wildcards", func(t *testing.T) {
		files := []string{"user-service-test.js", "user-controller-test.js", "payment-test.js"}
		result := filter.FilterByName(files, "*user*test.js")
		if len(result) != 2 {
			t.Errorf("expected 2 matches, got %d", len(result))
		}
	})
}
