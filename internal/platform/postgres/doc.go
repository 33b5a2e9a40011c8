// Package postgres implements the store interfaces and the job store on
// PostgreSQL through database/sql and the pgx driver. Schema migrations are
// embedded and applied with goose.
package postgres
