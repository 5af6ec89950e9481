package store

import (
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// migrate applies forward-only schema changes gated on PRAGMA
// user_version, the same mechanism the teacher's migrate.go uses. The
// fixed six-table schema is created unconditionally by schema.sql;
// this only needs to stamp the version on first open.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}
	return setUserVersion(db, schemaVersion)
}

func getUserVersion(db *sql.DB) (int, error) {
	row := db.QueryRow("PRAGMA user_version;")
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d;", version))
	return err
}
