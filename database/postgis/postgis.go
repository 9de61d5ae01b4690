// Package postgis loads features into a single PostGIS table with COPY.
package postgis

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	pq "github.com/lib/pq"
	"github.com/omniscale/osmfeatures/database"
	"github.com/omniscale/osmfeatures/feature"
	"github.com/omniscale/osmfeatures/logging"
	"github.com/omniscale/osmfeatures/mapping"

	"github.com/paulmach/orb/encoding/ewkb"
	"github.com/pkg/errors"
)

var log = logging.NewLogger("PostGIS")

type SQLError struct {
	query         string
	originalError error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s", e.originalError.Error(), e.query)
}

type SQLInsertError struct {
	SQLError
	data interface{}
}

func (e *SQLInsertError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s (%+v)", e.originalError.Error(), e.query, e.data)
}

// TypeNamer resolves type codes to their names. Implemented by
// mapping.Mapping.
type TypeNamer interface {
	Name(mapping.Type) string
}

var columns = []string{"osm_ids", "types", "kind", "geometry"}

// PostGIS is a feature.Emitter. All features of one run are copied into
// the table within a single transaction, the table is replaced on Open.
type PostGIS struct {
	Config database.Config
	Params string
	Schema string
	Table  string
	Db     *sql.DB

	names TypeNamer
	mu    sync.Mutex
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
}

// New parses the connection params. postgis:// URLs are accepted as an
// alias for postgres://.
func New(conf database.Config, names TypeNamer) (*PostGIS, error) {
	pg := &PostGIS{Config: conf, names: names}

	if strings.HasPrefix(conf.ConnectionParams, "postgis://") {
		pg.Config.ConnectionParams = strings.Replace(
			conf.ConnectionParams,
			"postgis", "postgres", 1,
		)
	}

	params, err := pq.ParseURL(pg.Config.ConnectionParams)
	if err != nil {
		return nil, errors.Wrap(err, "parsing connection params")
	}
	params = disableDefaultSslOnLocalhost(params)
	var prefix string
	params, pg.Schema, prefix = splitConnectionParams(params)
	pg.Params = params
	pg.Table = prefix + "features"
	return pg, nil
}

func (pg *PostGIS) fullName() string {
	return fmt.Sprintf(`"%s"."%s"`, pg.Schema, pg.Table)
}

func (pg *PostGIS) createTableSQL() []string {
	return []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, pg.fullName()),
		fmt.Sprintf(`CREATE TABLE %s (
    id SERIAL PRIMARY KEY,
    osm_ids TEXT[] NOT NULL,
    types TEXT[] NOT NULL,
    kind VARCHAR(8) NOT NULL,
    geometry Geometry(Geometry, %d)
)`, pg.fullName(), pg.Config.Srid),
	}
}

func (pg *PostGIS) indexSQL() string {
	return fmt.Sprintf(`CREATE INDEX "%s_geom" ON %s USING GIST (geometry)`,
		pg.Table, pg.fullName())
}

func (pg *PostGIS) createSchema() error {
	if pg.Schema == "public" {
		return nil
	}
	sql := fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, pg.Schema)
	if _, err := pg.Db.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

// Open connects to the database, recreates the feature table and starts
// the COPY.
func (pg *PostGIS) Open() error {
	var err error

	pg.Db, err = sql.Open("postgres", pg.Params)
	if err != nil {
		return err
	}
	// check that the connection actually works
	if err = pg.Db.Ping(); err != nil {
		return err
	}
	if err := pg.createSchema(); err != nil {
		return err
	}

	tx, err := pg.Db.Begin()
	if err != nil {
		return err
	}
	defer rollbackIfTx(&tx)

	for _, sql := range pg.createTableSQL() {
		if _, err := tx.Exec(sql); err != nil {
			return &SQLError{sql, err}
		}
	}
	copySQL := pq.CopyInSchema(pg.Schema, pg.Table, columns...)
	stmt, err := tx.Prepare(copySQL)
	if err != nil {
		return &SQLError{copySQL, err}
	}
	pg.stmt = stmt
	pg.tx, tx = tx, nil
	return nil
}

// row returns the COPY values of f. Geometries are passed as hex encoded
// EWKB.
func (pg *PostGIS) row(f *feature.Feature) ([]interface{}, error) {
	ids := make(pq.StringArray, len(f.Sources))
	for i, s := range f.Sources {
		ids[i] = s.String()
	}
	types := make(pq.StringArray, len(f.Types))
	for i, t := range f.Types {
		types[i] = pg.names.Name(t)
	}
	geom, err := ewkb.MarshalToHex(f.ClosedGeometry(), pg.Config.Srid)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding feature %v", f.Sources)
	}
	return []interface{}{ids, types, f.Kind.String(), geom}, nil
}

func (pg *PostGIS) Emit(f *feature.Feature) error {
	row, err := pg.row(f)
	if err != nil {
		return err
	}
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if pg.stmt == nil {
		return errors.New("postgis emitter not opened")
	}
	if _, err := pg.stmt.Exec(row...); err != nil {
		return &SQLInsertError{SQLError{"COPY " + pg.fullName(), err}, row}
	}
	pg.count++
	return nil
}

// Close finishes the COPY, creates the geometry index and commits.
func (pg *PostGIS) Close() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if pg.stmt == nil {
		return nil
	}
	defer pg.Db.Close()
	defer rollbackIfTx(&pg.tx)

	// flush COPY buffer
	if _, err := pg.stmt.Exec(); err != nil {
		return &SQLError{"COPY " + pg.fullName(), err}
	}
	if err := pg.stmt.Close(); err != nil {
		return err
	}
	pg.stmt = nil

	step := log.StartStep(fmt.Sprintf("Creating geometry index on %s", pg.fullName()))
	sql := pg.indexSQL()
	if _, err := pg.tx.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	log.StopStep(step)

	if err := pg.tx.Commit(); err != nil {
		return err
	}
	pg.tx = nil
	log.Printf("imported %d features into %s", pg.count, pg.fullName())
	return nil
}

// Abort discards all features of this run.
func (pg *PostGIS) Abort() error {
	pg.mu.Lock()
	defer pg.mu.Unlock()
	if pg.stmt != nil {
		pg.stmt.Close()
		pg.stmt = nil
	}
	rollbackIfTx(&pg.tx)
	if pg.Db != nil {
		return pg.Db.Close()
	}
	return nil
}
