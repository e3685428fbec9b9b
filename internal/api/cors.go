package api

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

const (
	allowedMethods = "GET, POST, PUT, DELETE, HEAD, OPTIONS"
	allowedHeaders = "Range, Content-Type, Authorization, X-Cutroom-Request-Id, X-Cutroom-Device-Id"
	exposedHeaders = "Content-Range, Accept-Ranges, Content-Length, Content-Type"
)

// CORSAllowlist admits the local dev UI and per-org cutroom web origins.
// Denied non-preflight requests are still served without CORS headers, so
// the browser blocks the read while curl keeps working; denied preflights
// are refused outright.
func CORSAllowlist() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if !isAllowedOrigin(origin) {
				if r.Method == http.MethodOptions {
					WriteError(w, http.StatusForbidden, "origin not allowed", "FORBIDDEN")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
			w.Header().Set("Access-Control-Expose-Headers", exposedHeaders)

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// isAllowedOrigin accepts localhost and 127.0.0.1 on any port, plus direct
// org subdomains of app.cutroom.co and app.cutroom.local. The host must be
// bare: any path, query or fragment disqualifies the origin.
func isAllowedOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}

	for _, suffix := range []string{".app.cutroom.co", ".app.cutroom.local"} {
		if label, ok := strings.CutSuffix(host, suffix); ok {
			return validOrgLabel(label)
		}
	}
	return false
}

// validOrgLabel matches a single DNS label: letters, digits and interior
// hyphens only.
func validOrgLabel(label string) bool {
	if label == "" {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return false
		}
	}
	return true
}

// LoopbackGuard refuses connections that do not originate from this
// machine. The server only binds loopback, so this is a second fence for
// misconfigured port forwards and proxies.
func LoopbackGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemoteAddr(r.RemoteAddr) {
				WriteError(w, http.StatusForbidden, "loopback connections only", "FORBIDDEN")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLoopbackRemoteAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	host = strings.Trim(host, "[]")
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
