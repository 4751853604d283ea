// Package store executes filled SQL against SQLite and keeps a log of what
// ran.
//
// The compiler core never touches a database; store is the collaborator the
// CLI exec command and the case-suite runner use to prove that compiled
// statements are valid SQLite.
//
// # Execution Log
//
// Every statement that runs successfully is appended to sexpsql_log with
// the caller's run ID and a logical sequence number. Log reads are ordered
// by seq ASC, id ASC so results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// A single connection is kept open, so ":memory:" databases persist for the
// life of the Store.
package store
