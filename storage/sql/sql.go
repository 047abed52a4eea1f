//go:build sql
// +build sql

// Package sql stores run reports in a SQL database (sqlite3,
// PostgreSQL, or MySQL) through sqlx. Reports are stored whole as JSON
// blobs keyed by a timestamp-sortable name, mirroring the filesystem
// layout so readers can treat any backend uniformly.
package sql

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/go-sql-driver/mysql" // Enable mysql backend
	_ "github.com/lib/pq"              // Enable postgresql backend
	_ "github.com/mattn/go-sqlite3"    // Enable sqlite3 backend

	"github.com/paneprobe/paneprobe/storage/fs"
	"github.com/paneprobe/paneprobe/types"
)

// schema is the table layout expected by the SQL report storage. It
// can be re-applied, and every identifier and type in it is accepted
// by all three supported backends.
const schema = `CREATE TABLE IF NOT EXISTS runs (
    name VARCHAR(512) NOT NULL PRIMARY KEY,
    timestamp BIGINT NOT NULL UNIQUE,
    session VARCHAR(512) NOT NULL,
    report TEXT
)`

// Storage is a way to store run reports in a SQL database.
type Storage struct {
	// SqliteDBFile is the sqlite3 DB where run reports will be stored.
	SqliteDBFile string `json:"sqlite_db_file,omitempty"`

	// PostgreSQL contains the Postgres connection settings.
	PostgreSQL *struct {
		Host     string `json:"host,omitempty"`
		Port     int    `json:"port,omitempty"`
		User     string `json:"user"`
		Password string `json:"password,omitempty"`
		DBName   string `json:"dbname"`
		SSLMode  string `json:"sslmode,omitempty"`
	} `json:"postgresql,omitempty"`

	// MySQL contains a DSN in go-sql-driver format, e.g.
	// "user:pass@tcp(host:3306)/dbname".
	MySQL string `json:"mysql_dsn,omitempty"`

	// Create, if set, applies the schema on every connect. The schema
	// only creates what is missing, so leaving this on is harmless.
	Create bool `json:"create,omitempty"`

	// Reports older than ReportExpiry will be deleted on calls to
	// Maintain(). If this is the zero value, no old reports will be
	// deleted.
	ReportExpiry time.Duration `json:"report_expiry,omitempty"`
}

// New creates a new Storage instance based on json config
func New(config json.RawMessage) (Storage, error) {
	var storage Storage
	err := json.Unmarshal(config, &storage)
	return storage, err
}

// Type returns the storage driver package name
func (Storage) Type() string {
	return Type
}

func (s Storage) dbConnect() (*sqlx.DB, error) {
	configured := 0
	if s.SqliteDBFile != "" {
		configured++
	}
	if s.PostgreSQL != nil {
		configured++
	}
	if s.MySQL != "" {
		configured++
	}
	if configured > 1 {
		return nil, errors.New("several SQL backends are configured")
	}

	var driver, dsn string
	switch {
	case s.SqliteDBFile != "":
		driver, dsn = "sqlite3", s.SqliteDBFile
	case s.MySQL != "":
		driver, dsn = "mysql", s.MySQL
	case s.PostgreSQL != nil:
		var pgOptions string
		if s.PostgreSQL.DBName == "" {
			return nil, errors.New("missing PostgreSQL database name")
		}
		if s.PostgreSQL.User == "" {
			return nil, errors.New("missing PostgreSQL username")
		}
		if s.PostgreSQL.Host != "" {
			pgOptions += " host=" + s.PostgreSQL.Host
		}
		if s.PostgreSQL.Port != 0 {
			pgOptions += " port=" + strconv.Itoa(s.PostgreSQL.Port)
		}
		pgOptions += " user=" + s.PostgreSQL.User
		if s.PostgreSQL.Password != "" {
			pgOptions += " password=" + s.PostgreSQL.Password
		}
		pgOptions += " dbname=" + s.PostgreSQL.DBName
		if s.PostgreSQL.SSLMode != "" {
			pgOptions += " sslmode=" + s.PostgreSQL.SSLMode
		}
		driver, dsn = "postgres", pgOptions
	default:
		return nil, errors.New("no configured database backend")
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if s.Create {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// GetIndex returns the name/timestamp index of stored runs.
func (s Storage) GetIndex() (map[string]int64, error) {
	db, err := s.dbConnect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	idx := make(map[string]int64)
	var run struct {
		Name      string `db:"name"`
		Timestamp int64  `db:"timestamp"`
	}

	rows, err := db.Queryx(`SELECT name,timestamp FROM runs`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		err := rows.StructScan(&run)
		if err != nil {
			rows.Close()
			return nil, err
		}
		idx[run.Name] = run.Timestamp
	}

	return idx, nil
}

// Fetch fetches the run report with the given name.
func (s Storage) Fetch(name string) (*types.RunReport, error) {
	db, err := s.dbConnect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var blob []byte
	var report types.RunReport

	err = db.Get(&blob, db.Rebind(`SELECT report FROM runs WHERE name=? LIMIT 1`), name)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(blob, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Store stores one run report in the database.
func (s Storage) Store(report *types.RunReport) error {
	db, err := s.dbConnect()
	if err != nil {
		return err
	}
	defer db.Close()

	blob, err := json.Marshal(report)
	if err != nil {
		return err
	}

	name := *fs.GenerateFilename()
	_, err = db.Exec(db.Rebind(`INSERT INTO runs (name,timestamp,session,report) VALUES (?,?,?,?)`),
		name, types.Timestamp(), report.Session, string(blob))
	return err
}

// Maintain deletes runs older than s.ReportExpiry.
func (s Storage) Maintain() error {
	if s.ReportExpiry == 0 {
		return nil
	}

	db, err := s.dbConnect()
	if err != nil {
		return err
	}
	defer db.Close()

	cutoff := time.Now().Add(-s.ReportExpiry).UnixNano()
	_, err = db.Exec(db.Rebind(`DELETE FROM runs WHERE timestamp < ?`), cutoff)
	return err
}
