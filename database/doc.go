// Package database is the storage gateway: connection and pool management
// for PostgreSQL (lib/pq or pgx), MySQL and SQLite through Bun, table
// creation with blocking foreign keys, query logging and metrics hooks,
// health checks, and classification of driver errors into PersistenceError.
package database
