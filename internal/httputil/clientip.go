// Package httputil holds small HTTP helpers shared by the serve mode:
// client IP extraction and the per-IP concurrent render limiter.
package httputil

import (
	"net"
	"net/http"
	"strings"
	"sync"
)

// ClientIP extracts the client IP address from the request.
// When trustProxy is true, X-Forwarded-For (first entry) and X-Real-IP
// headers are checked before falling back to RemoteAddr. Only enable
// trustProxy when the server is behind a trusted reverse proxy.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first (leftmost) IP — the original client.
			if i := strings.IndexByte(xff, ','); i > 0 {
				xff = xff[:i]
			}
			if ip := strings.TrimSpace(xff); ip != "" {
				return ip
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RenderLimiter tracks concurrent render requests per IP and globally.
// A render burns a CPU core for its full duration, so the caps are small.
type RenderLimiter struct {
	mu       sync.Mutex
	inFlight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewRenderLimiter creates a limiter allowing maxPerIP concurrent renders
// per client and maxTotal across all clients.
func NewRenderLimiter(maxPerIP, maxTotal int) *RenderLimiter {
	return &RenderLimiter{
		inFlight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// Acquire attempts to register a render for the given IP.
// Returns false if the IP or global limit has been reached.
func (l *RenderLimiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal {
		return false
	}
	if l.inFlight[ip] >= l.maxPerIP {
		return false
	}

	l.inFlight[ip]++
	l.total++
	return true
}

// Release decrements the render count for the given IP.
func (l *RenderLimiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight[ip]--
	l.total--
	if l.inFlight[ip] <= 0 {
		delete(l.inFlight, ip)
	}
}

// Count returns the number of active renders for the given IP.
func (l *RenderLimiter) Count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight[ip]
}
