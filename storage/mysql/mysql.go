package mysql

import (
	"encoding/json"
	"errors"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/sommelier/searchbench/storage/fs"
	"github.com/sommelier/searchbench/types"
)

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

// connectionString validates the DSN and defaults its charset
// to utf8mb4, which stored queries and titles need.
func (opts Storage) connectionString() (string, error) {
	if opts.DSN == "" {
		return "", errors.New("missing MySQL DSN")
	}
	cfg, err := mysqldriver.ParseDSN(opts.DSN)
	if err != nil {
		return "", err
	}
	if cfg.Params == nil {
		cfg.Params = map[string]string{}
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

func (opts Storage) dbConnect() (*sqlx.DB, error) {
	dsn, err := opts.connectionString()
	if err != nil {
		return nil, err
	}
	handle, err := sqlx.Connect(opts.Type(), dsn)
	if err != nil {
		return nil, err
	}
	if opts.Create {
		for _, stmt := range schema {
			if _, err := handle.Exec(stmt); err != nil {
				handle.Close()
				return nil, err
			}
		}
	}
	return handle, nil
}

// GetIndex returns the names and timestamps of the stored runs.
func (opts Storage) GetIndex() (map[string]int64, error) {
	db, err := opts.dbConnect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	idx := make(map[string]int64)
	var run struct {
		Name      string `db:"name"`
		Timestamp int64  `db:"timestamp"`
	}

	rows, err := db.Queryx("SELECT `name`, `timestamp` FROM `runs`")
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
func (opts Storage) Fetch(name string) ([]types.Result, error) {
	db, err := opts.dbConnect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var contents []byte
	err = db.Get(&contents, "SELECT `results` FROM `runs` WHERE `name` = ? LIMIT 1", name)
	if err != nil {
		return nil, err
	}
	var results []types.Result
	if err := json.Unmarshal(contents, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// Store stores results in the database, with one summary row
// per endpoint.
func (opts Storage) Store(results []types.Result) error {
	db, err := opts.dbConnect()
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

	const insertRun = "INSERT INTO `runs` (`name`, `timestamp`, `results`) VALUES (?, ?, ?)"
	if _, err := tx.Exec(insertRun, name, time.Now().UnixNano(), contents); err != nil {
		return err
	}

	const insertEndpoint = "INSERT INTO `endpoints` (`run`, `position`, `title`, `endpoint`, `status`, `mean_ns`, `failed`) VALUES (?, ?, ?, ?, ?, ?, ?)"
	for _, row := range endpointRows(name, results) {
		if _, err := tx.Exec(insertEndpoint, row...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// endpointRows returns the insert arguments of the endpoint rows
// of a run, keyed by the position of each result.
func endpointRows(run string, results []types.Result) [][]interface{} {
	rows := make([][]interface{}, 0, len(results))
	for i, r := range results {
		var mean *int64
		if stats, err := r.ComputeStats(); err == nil {
			ns := int64(stats.Mean)
			mean = &ns
		}
		rows = append(rows, []interface{}{run, i, r.Title, r.Endpoint, string(r.Status()), mean, r.Times.Failures()})
	}
	return rows
}

// Maintain deletes runs that are older than opts.CheckExpiry.
// Their endpoint rows go with them.
func (opts Storage) Maintain() error {
	if opts.CheckExpiry == 0 {
		return nil
	}

	db, err := opts.dbConnect()
	if err != nil {
		return err
	}
	defer db.Close()

	const query = "DELETE FROM `runs` WHERE `timestamp` < ?"
	ts := time.Now().Add(-1 * opts.CheckExpiry).UnixNano()
	_, err = db.Exec(query, ts)
	return err
}
