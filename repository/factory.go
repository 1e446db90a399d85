package repository

import "strings"

// NewRepositoryFromEnv picks a backend the way ledger.NewServiceFromEnv
// does: an explicit mode string (usually sourced from an env var by the
// caller), "memory" for tests/sandboxes, "sqlite"/"local" for the
// single-node default, anything else falls through to Postgres.
func NewRepositoryFromEnv(mode string) (Repository, string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "memory":
		return NewMemoryRepository(), "memory", nil
	case "local", "sqlite":
		repo, err := NewSQLiteRepositoryFromEnv()
		if err != nil {
			return nil, "", err
		}
		return repo, "sqlite", nil
	default:
		repo, err := NewPostgresRepositoryFromEnv()
		if err != nil {
			return nil, "", err
		}
		return repo, "postgres", nil
	}
}
