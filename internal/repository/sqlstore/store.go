// Package sqlstore implements repository.SnapshotStore on database/sql for
// SQLite (modernc.org/sqlite) and PostgreSQL (pgx).
//
// A snapshot is written into freshly created shadow tables which then take
// the place of the live tables, all inside one transaction. Readers see the
// previous snapshot until commit and the new one after it.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"clientparser/internal/domain"
	"clientparser/internal/repository"
)

// Store implements repository.SnapshotStore and repository.SnapshotReader
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

var (
	_ repository.SnapshotStore  = (*Store)(nil)
	_ repository.SnapshotReader = (*Store)(nil)
)

// Open connects to the database named by a DATABASE_URI value
func Open(ctx context.Context, uri string, logger *slog.Logger) (*Store, error) {
	target, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(target.Dialect.driverName(), target.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if target.Dialect == DialectSQLite {
		// one writer; an in-memory database also lives only as long as
		// its single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", target.Dialect, err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("database opened", "dialect", target.Dialect, "in_memory", target.InMemory())

	return &Store{db: db, dialect: target.Dialect, logger: logger}, nil
}

// Dialect reports the engine behind the store
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceSnapshot swaps every lease table in snap and the DNS table in a
// single transaction. On error nothing changes.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot %s: %w", snap.ID, err)
	}
	defer tx.Rollback()

	for _, table := range snap.Tables() {
		leases := snap.Leases(table)
		if err := s.replaceLeaseTable(ctx, tx, table, leases); err != nil {
			return err
		}
		s.logger.Debug("lease table staged", "table", table, "rows", len(leases))
	}

	if err := s.replaceDNSTable(ctx, tx, snap.DNS); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return &domain.StorageWriteError{Table: "*", Key: snap.ID, Err: err}
	}

	s.logger.Debug("snapshot committed",
		"snapshot", snap.ID,
		"tables", len(snap.Tables()),
		"leases", snap.LeaseCount(),
		"dns_records", len(snap.DNS),
	)
	return nil
}

func (s *Store) replaceLeaseTable(ctx context.Context, tx *sql.Tx, table string, leases []domain.LeaseRecord) error {
	shadow := shadowName(table)
	if _, err := tx.ExecContext(ctx, s.dialect.leaseTableDDL(shadow)); err != nil {
		return &domain.StorageWriteError{Table: table, Err: fmt.Errorf("create: %w", err)}
	}
	if err := s.insertLeases(ctx, tx, shadow, table, leases); err != nil {
		return err
	}
	return s.swap(ctx, tx, shadow, table)
}

// insertLeases fills the shadow table. The statement is closed before the
// shadow is renamed.
func (s *Store) insertLeases(ctx context.Context, tx *sql.Tx, shadow, table string, leases []domain.LeaseRecord) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(shadow), leaseColumns, s.dialect.placeholders(6)))
	if err != nil {
		return &domain.StorageWriteError{Table: table, Err: fmt.Errorf("prepare: %w", err)}
	}
	defer stmt.Close()

	for _, lease := range leases {
		if _, err := stmt.ExecContext(ctx, leaseInsertArgs(lease)...); err != nil {
			return &domain.StorageWriteError{Table: table, Key: lease.IP + "|" + lease.MAC, Err: err}
		}
	}
	return nil
}

func (s *Store) replaceDNSTable(ctx context.Context, tx *sql.Tx, records []domain.DNSRecord) error {
	table := repository.DNSTable
	shadow := shadowName(table)
	if _, err := tx.ExecContext(ctx, s.dialect.dnsTableDDL(shadow)); err != nil {
		return &domain.StorageWriteError{Table: table, Err: fmt.Errorf("create: %w", err)}
	}
	if err := s.insertDNS(ctx, tx, shadow, records); err != nil {
		return err
	}
	return s.swap(ctx, tx, shadow, table)
}

func (s *Store) insertDNS(ctx context.Context, tx *sql.Tx, shadow string, records []domain.DNSRecord) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(shadow), dnsColumns, s.dialect.placeholders(5)))
	if err != nil {
		return &domain.StorageWriteError{Table: repository.DNSTable, Err: fmt.Errorf("prepare: %w", err)}
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, dnsInsertArgs(rec)...); err != nil {
			return &domain.StorageWriteError{Table: repository.DNSTable, Key: rec.Name + "|" + rec.Hostname, Err: err}
		}
	}
	return nil
}

// swap drops the live table and renames the shadow into its place
func (s *Store) swap(ctx context.Context, tx *sql.Tx, shadow, live string) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdent(live)); err != nil {
		return &domain.StorageWriteError{Table: live, Err: fmt.Errorf("drop: %w", err)}
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, quoteIdent(shadow), quoteIdent(live))); err != nil {
		return &domain.StorageWriteError{Table: live, Err: fmt.Errorf("rename: %w", err)}
	}
	return nil
}

// shadowName gives a staging table a unique name, so constraint and
// sequence names derived from it never collide with the live table's
func shadowName(live string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return live + "_shadow_" + suffix
}

// Tables lists the tables currently present
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.listTablesQuery())
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Leases reads one lease table in insertion order
func (s *Store) Leases(ctx context.Context, table string) ([]domain.LeaseRecord, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, leaseColumns, quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	leases := make([]domain.LeaseRecord, 0)
	for rows.Next() {
		var row leaseRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		lease, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("lease %s: %w", row.MAC, err)
		}
		leases = append(leases, lease)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", table, err)
	}
	return leases, nil
}

// DNSRecords reads the DNS table in insertion order
func (s *Store) DNSRecords(ctx context.Context) ([]domain.DNSRecord, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, dnsColumns, quoteIdent(repository.DNSTable)))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", repository.DNSTable, err)
	}
	defer rows.Close()

	records := make([]domain.DNSRecord, 0)
	for rows.Next() {
		var row dnsRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan dns record: %w", err)
		}
		rec, err := row.toDomain()
		if err != nil {
			return nil, fmt.Errorf("dns record %s: %w", row.Hostname, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", repository.DNSTable, err)
	}
	return records, nil
}
