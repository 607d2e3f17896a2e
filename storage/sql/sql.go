// +build sql

package sql

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // Enable postgresql backend
	_ "github.com/mattn/go-sqlite3" // Enable sqlite3 backend

	"github.com/sommelier/searchbench/storage/fs"
	"github.com/sommelier/searchbench/types"
)

// schema is the table schema expected by the SQL storage. Every run
// is a row in runs; endpoints holds one summary row per sampled
// endpoint of a run so latency can be queried without decoding JSON.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    name TEXT NOT NULL PRIMARY KEY,
    timestamp INT8 NOT NULL,
    results TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);
CREATE TABLE IF NOT EXISTS endpoints (
    run TEXT NOT NULL,
    position INT NOT NULL,
    title TEXT NOT NULL,
    endpoint TEXT,
    status TEXT NOT NULL,
    mean_ns INT8,
    failed INT NOT NULL,
    PRIMARY KEY (run, position)
);
`

// PostgreSQL holds the connection settings of a Postgres backend.
type PostgreSQL struct {
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode,omitempty"`
}

func (pg PostgreSQL) connectionString() (string, error) {
	if pg.DBName == "" {
		return "", errors.New("missing PostgreSQL database name")
	}
	if pg.User == "" {
		return "", errors.New("missing PostgreSQL username")
	}
	var opts string
	if pg.Host != "" {
		opts += " host=" + pg.Host
	}
	if pg.Port != 0 {
		opts += " port=" + strconv.Itoa(pg.Port)
	}
	opts += " user=" + pg.User
	if pg.Password != "" {
		opts += " password=" + pg.Password
	}
	opts += " dbname=" + pg.DBName
	if pg.SSLMode != "" {
		opts += " sslmode=" + pg.SSLMode
	}
	return opts, nil
}

// Storage is a way to store run results in a SQL database.
type Storage struct {
	// SqliteDBFile is the sqlite3 DB where run results will be stored.
	SqliteDBFile string `json:"sqlite_db_file,omitempty"`

	// PostgreSQL contains the Postgres connection settings.
	PostgreSQL *PostgreSQL `json:"postgresql,omitempty"`

	// Create issues the schema statements on connect.
	Create bool `json:"create,omitempty"`

	// Runs older than CheckExpiry will be deleted on calls
	// to Maintain(). If this is the zero value, no old runs
	// will be deleted.
	CheckExpiry time.Duration `json:"check_expiry,omitempty"`
}

// EndpointRow summarizes one endpoint of a stored run. Position
// is the index of the endpoint in the run; titles may repeat.
type EndpointRow struct {
	Run      string `db:"run"`
	Position int    `db:"position"`
	Title    string `db:"title"`
	Endpoint string `db:"endpoint"`
	Status   string `db:"status"`
	MeanNS   *int64 `db:"mean_ns"`
	Failed   int    `db:"failed"`
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

func (sql Storage) dbConnect() (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	switch {
	case sql.SqliteDBFile != "" && sql.PostgreSQL != nil:
		return nil, errors.New("several SQL backends are configured")
	case sql.SqliteDBFile != "":
		db, err = sqlx.Connect("sqlite3", sql.SqliteDBFile)
	case sql.PostgreSQL != nil:
		var dsn string
		if dsn, err = sql.PostgreSQL.connectionString(); err != nil {
			return nil, err
		}
		db, err = sqlx.Connect("postgres", dsn)
	default:
		return nil, errors.New("no configured database backend")
	}
	if err != nil {
		return nil, err
	}

	if sql.Create {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

// GetIndex returns the names and timestamps of the stored runs.
func (sql Storage) GetIndex() (map[string]int64, error) {
	db, err := sql.dbConnect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	idx := make(map[string]int64)
	var run struct {
		Name      string `db:"name"`
		Timestamp int64  `db:"timestamp"`
	}

	rows, err := db.Queryx(`SELECT name, timestamp FROM runs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		if err := rows.StructScan(&run); err != nil {
			return nil, err
		}
		idx[run.Name] = run.Timestamp
	}
	return idx, rows.Err()
}

// Fetch fetches the results of the run with the given name.
func (sql Storage) Fetch(name string) ([]types.Result, error) {
	db, err := sql.dbConnect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var contents string
	err = db.Get(&contents, db.Rebind(`SELECT results FROM runs WHERE name = ? LIMIT 1`), name)
	if err != nil {
		return nil, err
	}
	var results []types.Result
	if err := json.Unmarshal([]byte(contents), &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Endpoints returns the endpoint summary rows of the run with the given name.
func (sql Storage) Endpoints(name string) ([]EndpointRow, error) {
	db, err := sql.dbConnect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows []EndpointRow
	err = db.Select(&rows, db.Rebind(`SELECT run, position, title, endpoint, status, mean_ns, failed FROM endpoints WHERE run = ? ORDER BY position`), name)
	return rows, err
}

// Store stores results in the database.
func (sql Storage) Store(results []types.Result) error {
	db, err := sql.dbConnect()
	if err != nil {
		return err
	}
	defer db.Close()

	name := *fs.GenerateFilename()
	contents, err := json.Marshal(results)
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(tx.Rebind(`INSERT INTO runs (name, timestamp, results) VALUES (?, ?, ?)`),
		name, time.Now().UnixNano(), string(contents))
	if err != nil {
		return err
	}
	for _, row := range endpointRows(name, results) {
		_, err := tx.NamedExec(`INSERT INTO endpoints (run, position, title, endpoint, status, mean_ns, failed)
			VALUES (:run, :position, :title, :endpoint, :status, :mean_ns, :failed)`, row)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Maintain deletes runs that are older than sql.CheckExpiry.
func (sql Storage) Maintain() error {
	if sql.CheckExpiry == 0 {
		return nil
	}

	db, err := sql.dbConnect()
	if err != nil {
		return err
	}
	defer db.Close()

	ts := time.Now().Add(-1 * sql.CheckExpiry).UnixNano()
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(tx.Rebind(`DELETE FROM endpoints WHERE run IN (SELECT name FROM runs WHERE timestamp < ?)`), ts); err != nil {
		return err
	}
	if _, err := tx.Exec(tx.Rebind(`DELETE FROM runs WHERE timestamp < ?`), ts); err != nil {
		return err
	}
	return tx.Commit()
}

func endpointRows(run string, results []types.Result) []EndpointRow {
	rows := make([]EndpointRow, 0, len(results))
	for i, r := range results {
		row := EndpointRow{
			Run:      run,
			Position: i,
			Title:    r.Title,
			Endpoint: r.Endpoint,
			Status:   string(r.Status()),
			Failed:   r.Times.Failures(),
		}
		if stats, err := r.ComputeStats(); err == nil {
			mean := int64(stats.Mean)
			row.MeanNS = &mean
		}
		rows = append(rows, row)
	}
	return rows
}
