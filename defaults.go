package gorawrstash

// DefaultOptions returns the recommended set of options for production use:
// panic recovery and request-ID propagation. Rate limiting, authentication,
// and tracing stay opt-in.
func DefaultOptions() []Option {
	return []Option{
		WithRecovery(),
		WithRequestID(),
	}
}
