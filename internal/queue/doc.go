// Package queue persists karaoke requests in SQLite and owns the request
// lifecycle enum.
//
// The Store manages the database connection, schema initialization, request
// creation, claiming by workers, status transitions with their artifacts and
// failure surface, and recovery of requests interrupted by a daemon restart.
// Status values mirror the pipeline state machine one to one, so a row always
// shows the stage a request last entered.
//
// The database is working state for the daemon rather than an archive. Schema
// changes bump the version in schema.go; operators delete the database to
// adopt the new schema.
package queue
