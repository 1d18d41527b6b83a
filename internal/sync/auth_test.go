package sync

import (
	"testing"
)

func TestBuildAuthHeaders(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		auth AuthConfig
		key  string
		want string
	}{
		{
			name: "api key",
			auth: AuthConfig{Type: AuthAPIKey, APIKey: "secret"},
			key:  "X-API-Key",
			want: "secret",
		},
		{
			name: "bearer",
			auth: AuthConfig{Type: AuthBearer, APIKey: "tok"},
			key:  "Authorization",
			want: "Bearer tok",
		},
		{
			name: "basic",
			auth: AuthConfig{Type: AuthBasic, Username: "u", APIKey: "p"},
			key:  "Authorization",
			want: "Basic dTpw",
		},
		{
			name: "oauth",
			auth: AuthConfig{Type: AuthOAuth, AccessToken: "at"},
			key:  "Authorization",
			want: "Bearer at",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			headers := BuildAuthHeaders(tt.auth)
			if got := headers[tt.key]; got != tt.want {
				t.Fatalf("headers[%q] = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestBuildAuthHeadersCustomHeaders(t *testing.T) {
	t.Parallel()
	auth := AuthConfig{
		Type:   AuthBearer,
		APIKey: "tok",
		CustomHeaders: map[string]string{
			"X-Tenant":      "acme",
			"Authorization": "should-lose",
		},
	}

	headers := BuildAuthHeaders(auth)
	if headers["X-Tenant"] != "acme" {
		t.Fatalf("custom header missing: %v", headers)
	}
	// Auth headers win on collision.
	if headers["Authorization"] != "Bearer tok" {
		t.Fatalf("Authorization = %q, want auth header to take precedence", headers["Authorization"])
	}
}
