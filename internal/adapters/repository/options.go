package repository

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithMaxOpenConns caps open connections. SQLite stores default to one.
func WithMaxOpenConns(n int) Option {
	return func(s *SQLStore) {
		if n > 0 {
			s.maxOpenConns = n
		}
	}
}
