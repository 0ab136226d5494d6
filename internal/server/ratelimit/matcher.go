package ratelimit

import "strings"

// unlimited is returned for the health check
var unlimited = EndpointConfig{}

// MatchEndpoint returns the config for a request, or nil to use the default limit.
// Exact paths win over patterns; patterns are tried in order.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if path == "/health" && method == "GET" {
		return &unlimited
	}

	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}
	for i := range configs {
		if configs[i].Method == method && matchPattern(configs[i].Path, path) {
			return &configs[i]
		}
	}
	return nil
}

// matchPattern reports whether path fits pattern
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/") && !strings.Contains(pattern, "*") {
		return strings.HasPrefix(path, pattern)
	}
	if !strings.Contains(pattern, "*") {
		return false
	}

	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i, seg := range want {
		if seg == "*" {
			if got[i] == "" {
				return false
			}
			continue
		}
		if seg != got[i] {
			return false
		}
	}
	return true
}
