package repository

import "testing"

func TestIsAllowedSort(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"title", true},
		{"imdbRating", true},
		{"runtime", true},
		{"Title", false},
		{"title` DESC //", false},
		{"", false},
		{"password", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsAllowedSort(tt.key); got != tt.want {
				t.Errorf("IsAllowedSort(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestIsAllowedOrder(t *testing.T) {
	tests := []struct {
		order string
		want  bool
	}{
		{"ASC", true},
		{"desc", true},
		{"Desc", true},
		{"DESC; MATCH (n) DETACH DELETE n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.order, func(t *testing.T) {
			if got := IsAllowedOrder(tt.order); got != tt.want {
				t.Errorf("IsAllowedOrder(%q) = %v, want %v", tt.order, got, tt.want)
			}
		})
	}
}

func TestListOptionsKey(t *testing.T) {
	opts := ListOptions{Sort: SortImdbRating, Order: "desc"}
	if got := opts.Key(); got != "imdbRating DESC" {
		t.Errorf("Key() = %q, want %q", got, "imdbRating DESC")
	}
}
