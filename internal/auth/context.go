package auth

import "context"

type contextKey string

const hostKey contextKey = "authHost"

// Host represents an authenticated integration host.
type Host struct {
	Sub      string
	HostName string
	Type     TokenType
}

// WithHost stores an authenticated host in the context.
func WithHost(ctx context.Context, host Host) context.Context {
	return context.WithValue(ctx, hostKey, host)
}

// HostFromContext returns the authenticated host, if present.
func HostFromContext(ctx context.Context) (Host, bool) {
	if ctx == nil {
		return Host{}, false
	}
	value := ctx.Value(hostKey)
	if value == nil {
		return Host{}, false
	}
	host, ok := value.(Host)
	return host, ok
}
