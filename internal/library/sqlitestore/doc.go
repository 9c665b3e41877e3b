// Package sqlitestore persists the movie library in SQLite (modernc.org/sqlite)
// or on a libsql server (libsql:// and wss:// URLs).
//
// One Store backs three collaborators: the library Persister, the durable
// poster tier of postercache, and the preference override table used by
// config. Schema changes ship as embedded, versioned migrations.
package sqlitestore
