package security

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
)

var allowedContentTypes = map[string]bool{
	"application/json":                  true,
	"application/x-www-form-urlencoded": true,
}

// ValidateContentType ensures the request has an accepted content type.
// Parameters such as charset are ignored.
func ValidateContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedContentTypes[mediaType]
}

var sensitiveHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"X-CSRF-Token",
}

// Websocket clients pass their JWT as ?token=
var sensitiveQueryParams = []string{"token", "access_token"}

const redacted = "redacted"

// SanitizeURI masks credentials carried in the query string
func SanitizeURI(uri string) string {
	u, err := url.ParseRequestURI(uri)
	if err != nil {
		path, _, _ := strings.Cut(uri, "?")
		return path
	}
	if u.RawQuery == "" {
		return uri
	}
	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return u.Path
	}
	changed := false
	for _, param := range sensitiveQueryParams {
		if query.Has(param) {
			query.Set(param, redacted)
			changed = true
		}
	}
	if !changed {
		return uri
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// SanitizeHeaders returns a copy of headers without credentials
func SanitizeHeaders(headers http.Header) http.Header {
	clean := headers.Clone()
	for _, header := range sensitiveHeaders {
		clean.Del(header)
	}
	return clean
}
