// Package sqlstore implements the store interfaces on top of database/sql
// through sqlx. The same queries run against PostgreSQL (pgx driver) and an
// embedded SQLite file (modernc driver); placeholders are rebound per driver.
//
// Time comparisons happen in Go rather than SQL so both backends behave
// identically. Timestamps are always written in UTC.
package sqlstore
