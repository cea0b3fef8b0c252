package ledger

type options struct {
	silent bool
}

// Option tunes a single ledger operation.
type Option func(*options)

// WithoutNotify keeps the operation from notifying subscribers. Bulk callers
// use it per row and publish one change with Notify afterwards.
func WithoutNotify() Option {
	return func(o *options) {
		o.silent = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
