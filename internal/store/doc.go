// Package store executes compiled statements over database/sql.
//
// A Store owns one *sql.DB and one querysql.SQLCompiler. Every helper
// compiles a queryir statement, logs it at debug level and hands the SQL
// plus its ordered bind values to the driver unchanged:
//   - Select, Get: rows in column order
//   - Has, Count, Aggregate: single scalar results
//   - Insert: last insert id
//   - Update, Delete: affected row count
//   - Exec, Query: pass-through for already compiled SQL
//
// # Drivers
//
//   - sqlite3 (mattn/go-sqlite3): single open connection, WAL mode,
//     NORMAL synchronous, 5-second busy timeout, foreign keys on
//   - mysql (go-sql-driver/mysql): DSN validated with mysql.ParseDSN
//
// # Transactions
//
// Action runs a callback against a Store bound to one *sql.Tx. The
// transaction commits when the callback returns nil and rolls back
// otherwise. Returning ErrRollback rolls back without reporting an error.
package store
