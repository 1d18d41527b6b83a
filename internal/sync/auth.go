package sync

import (
	"encoding/base64"
)

// BuildAuthHeaders returns the outbound headers for a connection. Custom
// headers are merged first so auth headers win on key collision.
func BuildAuthHeaders(auth AuthConfig) map[string]string {
	headers := make(map[string]string, len(auth.CustomHeaders)+1)
	for k, v := range auth.CustomHeaders {
		headers[k] = v
	}

	switch auth.Type {
	case AuthAPIKey:
		headers["X-API-Key"] = auth.APIKey
	case AuthBearer:
		headers["Authorization"] = "Bearer " + auth.APIKey
	case AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.APIKey))
		headers["Authorization"] = "Basic " + creds
	case AuthOAuth:
		headers["Authorization"] = "Bearer " + auth.AccessToken
	}

	return headers
}
