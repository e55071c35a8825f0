package repository

// Rebind exposes placeholder rewriting to tests.
func (s *SQLStore) Rebind(query string) string { return s.rebind(query) }

// NewPostgresForTest returns an unconnected Postgres-flavoured store.
func NewPostgresForTest() *SQLStore { return &SQLStore{driver: DriverPostgres} }
