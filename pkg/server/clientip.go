package server

import (
	"net"
	"net/http"
	"strings"
)

// clientIP returns the normalised client address. Forwarding headers are only
// consulted when trustProxy is set.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		for ip := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
			if parsed := parseIP(ip); parsed != "" {
				return parsed
			}
		}
		if parsed := parseIP(r.Header.Get("X-Real-IP")); parsed != "" {
			return parsed
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}
