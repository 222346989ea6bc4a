package discovery

import "testing"

func TestInstance_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		instance *Instance
		expected string
	}{
		{
			name:     "plain http",
			instance: &Instance{IP: "192.168.4.16", Port: 8080},
			expected: "http://192.168.4.16:8080",
		},
		{
			name: "https scheme record",
			instance: &Instance{IP: "10.0.0.5", Port: 8443,
				Metadata: map[string]string{TXTScheme: "https"}},
			expected: "https://10.0.0.5:8443",
		},
		{
			name: "unknown scheme is http",
			instance: &Instance{IP: "10.0.0.5", Port: 80,
				Metadata: map[string]string{TXTScheme: "gopher"}},
			expected: "http://10.0.0.5:80",
		},
		{
			name:     "IPv6 is bracketed",
			instance: &Instance{IP: "fe80::1", Port: 8080},
			expected: "http://[fe80::1]:8080",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.instance.BaseURL(); got != tt.expected {
				t.Errorf("BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestInstance_LoginPath(t *testing.T) {
	if got := (&Instance{}).LoginPath(); got != "/login" {
		t.Errorf("LoginPath() = %q, want /login", got)
	}
	inst := &Instance{Metadata: map[string]string{TXTPath: "/auth/login"}}
	if got := inst.LoginPath(); got != "/auth/login" {
		t.Errorf("LoginPath() = %q, want /auth/login", got)
	}
}

func TestInstance_String(t *testing.T) {
	inst := &Instance{
		Name: "assetdesk on nas",
		Host: "nas.local",
		IP:   "192.168.4.16",
		Port: 8080,
	}
	want := "assetdesk on nas (nas.local) at http://192.168.4.16:8080"
	if got := inst.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	inst.Metadata = map[string]string{TXTVersion: "1.0.0"}
	want += " [1.0.0]"
	if got := inst.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestInstance_GetMetadata(t *testing.T) {
	var inst Instance
	if got := inst.GetMetadata("path"); got != "" {
		t.Errorf("GetMetadata on nil map = %q", got)
	}
}
