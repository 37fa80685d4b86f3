package osu

const (
	DefaultPageSize          = 50
	DefaultLookupConcurrency = 4
	// maxUsersPerLookup is the API's cap on ids per /users request.
	maxUsersPerLookup = 50
	// MaxScoresPageSize is the largest page /users/{id}/scores serves.
	MaxScoresPageSize = 100
)

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	pageSize          int
	lookupConcurrency int
}

func defaultOptions() clientOptions {
	return clientOptions{
		pageSize:          DefaultPageSize,
		lookupConcurrency: DefaultLookupConcurrency,
	}
}

// WithPageSize sets the default page size of paged endpoints.
func WithPageSize(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithLookupConcurrency bounds the parallel requests of batch lookups.
func WithLookupConcurrency(n int) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.lookupConcurrency = n
		}
	}
}
