package urls

import "testing"

func TestJoin(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://assets.local:8080", Login, "http://assets.local:8080/login"},
		{"http://assets.local:8080/", Login, "http://assets.local:8080/login"},
		{"http://assets.local/desk", Login, "http://assets.local/desk/login"},
		{"http://assets.local/desk/", "assets", "http://assets.local/desk/assets"},
		{"http://assets.local/desk/", "", "http://assets.local/desk"},
	}
	for _, tt := range tests {
		if got := Join(tt.base, tt.path); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}
