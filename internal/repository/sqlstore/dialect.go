package sqlstore

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Dialect identifies a supported database engine
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// memoryDSN opens a private in-memory SQLite database
const memoryDSN = ":memory:"

// sqlitePragmas are applied by modernc.org/sqlite on every new connection
const sqlitePragmas = "_pragma=busy_timeout(5000)&_time_format=sqlite"

// Target is a parsed DATABASE_URI
type Target struct {
	Dialect Dialect
	DSN     string
}

// InMemory reports whether the target is a transient SQLite database
func (t Target) InMemory() bool {
	return t.Dialect == DialectSQLite && strings.HasPrefix(t.DSN, memoryDSN)
}

// ParseURI maps a SQLAlchemy-style database URI onto a driver target.
//
//	sqlite:///relative.db        -> relative.db
//	sqlite:////var/lib/leases.db -> /var/lib/leases.db
//	sqlite:// or sqlite:///:memory: -> in-memory
//	postgresql+psycopg2://u:p@host/db -> postgres://u:p@host/db
//
// A value without a scheme is taken as a SQLite file path.
func ParseURI(uri string) (Target, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Target{}, fmt.Errorf("empty database URI")
	}

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return sqliteTarget(uri), nil
	}

	// drop the SQLAlchemy driver qualifier, e.g. postgresql+psycopg2
	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch base {
	case "sqlite", "sqlite3":
		switch rest {
		case "", memoryDSN, "/" + memoryDSN:
			return sqliteTarget(memoryDSN), nil
		}
		return sqliteTarget(strings.TrimPrefix(rest, "/")), nil

	case "postgres", "postgresql":
		dsn := "postgres://" + rest
		if _, err := url.Parse(dsn); err != nil {
			return Target{}, fmt.Errorf("invalid postgres URI: %w", err)
		}
		return Target{Dialect: DialectPostgres, DSN: dsn}, nil
	}

	return Target{}, fmt.Errorf("unsupported database scheme %q", scheme)
}

func sqliteTarget(path string) Target {
	if path == memoryDSN {
		return Target{Dialect: DialectSQLite, DSN: memoryDSN + "?" + sqlitePragmas}
	}
	return Target{
		Dialect: DialectSQLite,
		DSN:     filepath.Clean(path) + "?" + sqlitePragmas + "&_pragma=journal_mode(WAL)",
	}
}

// driverName is the database/sql driver registered for the dialect
func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) idColumn() string {
	if d == DialectPostgres {
		return "id BIGSERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d Dialect) timestampType() string {
	if d == DialectPostgres {
		return "TIMESTAMP"
	}
	return "DATETIME"
}

// placeholders returns the bind list for n parameters
func (d Dialect) placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		if d == DialectPostgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return strings.Join(marks, ", ")
}

func (d Dialect) leaseTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
	%s,
	ip VARCHAR(15) NOT NULL,
	mac VARCHAR(26) NOT NULL UNIQUE,
	lease_status VARCHAR(255) NOT NULL,
	hostname VARCHAR(255),
	subnet VARCHAR(15) NOT NULL,
	"timestamp" %s NOT NULL
)`, quoteIdent(table), d.idColumn(), d.timestampType())
}

func (d Dialect) dnsTableDDL(table string) string {
	return fmt.Sprintf(`CREATE TABLE %s (
	%s,
	name VARCHAR(255) NOT NULL,
	hostname VARCHAR(255) NOT NULL,
	record_type VARCHAR(10) NOT NULL,
	data VARCHAR(255) NOT NULL,
	"timestamp" %s NOT NULL
)`, quoteIdent(table), d.idColumn(), d.timestampType())
}

// listTablesQuery returns the user tables of the current schema
func (d Dialect) listTablesQuery() string {
	if d == DialectPostgres {
		return `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	}
	return `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`
}

// quoteIdent quotes a table name for both dialects
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
