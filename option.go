package rowdb

// DefaultMaxPages is the page capacity of a table opened without
// WithMaxPages. The store keeps every touched page in memory for its
// lifetime, so this also bounds memory use (100 pages = ~400KB).
const DefaultMaxPages = 100

// Options configures table behavior.
type Options struct {
	logger   Logger
	maxPages uint32
}

func defaultOptions() Options {
	return Options{
		logger:   DiscardLogger{},
		maxPages: DefaultMaxPages,
	}
}

// Option configures a table using the functional options pattern.
type Option func(*Options)

// WithLogger sets the logger used for lifecycle and tree-growth events.
// The default discards everything.
func WithLogger(l Logger) Option {
	return func(opts *Options) {
		opts.logger = l
	}
}

// WithMaxPages sets the maximum number of pages the store may hold.
// Operations that would grow the file past this bound fail with
// ErrPageCapacityExceeded.
func WithMaxPages(n uint32) Option {
	return func(opts *Options) {
		opts.maxPages = n
	}
}
