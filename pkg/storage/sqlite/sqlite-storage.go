package sqlite

import (
	"database/sql"
	"errors"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Storage wraps the forum's SQLite connection; repositories receive the
// underlying *sql.DB and remain oblivious to schema bootstrapping.
type Storage struct {
	Connection *sql.DB
}

// New opens the database found at path, creating and initialising it when
// missing. Existing databases are verified against the expected schema, so a
// stale file fails fast instead of erroring mid-query.
func New(logger *logrus.Logger, path string) (storage *Storage, err error) {
	logger.Println("initialising SQLite DB")

	var connection *sql.DB

	if _, err = os.Stat(path); err == nil {
		connection, err = openVerifiedConnection(path)
		if err != nil {
			logger.WithError(err).Error("error while verifying existing database")
			return nil, err
		}
	} else {
		// create the file and initialise the schema; mind the explicit need for foreign keys constraints
		connection, err = sql.Open("sqlite3", connectionString(path))
		if err != nil {
			logger.WithError(err).Error("error while creating new database")
			return nil, err
		}
		if _, err = connection.Exec(schema); err != nil {
			logger.WithError(err).Error("error while building database schema")
			return nil, err
		}
	}

	// opening the DB will fail silently when the package is compiled without CGO_ENABLED
	if err = connection.Ping(); err != nil {
		return nil, err
	}
	return &Storage{Connection: connection}, nil
}

func (s *Storage) Close() error {
	return s.Connection.Close()
}

// openVerifiedConnection compares the schema of an existing database file with
// the one this package defines, rejecting mismatches.
func openVerifiedConnection(path string) (connection *sql.DB, err error) {
	connection, err = sql.Open("sqlite3", connectionString(path))
	if err != nil {
		return nil, err
	}

	// build the desired schema in memory for comparison
	desired, err := sql.Open("sqlite3", connectionString(":memory:"))
	if err != nil {
		return nil, err
	}
	if _, err = desired.Exec(schema); err != nil {
		return nil, err
	}

	desiredTables, err := mapSchema(desired)
	if err != nil {
		return nil, err
	}
	actualTables, err := mapSchema(connection)
	if err != nil {
		return nil, err
	}

	if sameSchemaMap(desiredTables, actualTables) {
		return connection, nil
	}
	return nil, errors.New("schema mismatch")
}

func mapSchema(connection *sql.DB) (tables map[string]string, err error) {
	rows, err := connection.Query(`SELECT name, sql FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}

	// in-memory and on-file sqlite schemas differ in whitespace, possibly due to the hosting platform
	var replacer = strings.NewReplacer(
		"\n\t\t", "",
		"\r\n\t\t", "",
		"\r\n", "",
		"\n", "",
	)

	tables = make(map[string]string)
	var name, sqlCode string
	for rows.Next() {
		if err = rows.Scan(&name, &sqlCode); err != nil {
			return tables, err
		}
		tables[name] = replacer.Replace(sqlCode)
	}

	if err = rows.Err(); err != nil {
		return tables, err
	}

	if err = rows.Close(); err != nil {
		return tables, err
	}

	return tables, err
}

func sameSchemaMap(first, second map[string]string) bool {
	if len(first) != len(second) {
		return false
	}
	for firstKey, firstValue := range first {
		if secondValue, found := second[firstKey]; !found || secondValue != firstValue {
			return false
		}
	}
	return true
}

// connectionString provides a configuration string that enables foreign keys
// constraints, on which the cascading deletes of posts rely.
func connectionString(path string) string {
	return path + "?_fk=on"
}
