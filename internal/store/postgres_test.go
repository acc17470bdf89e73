package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDriver is an in-process database/sql driver that understands the statements
// PostgresStore issues and keeps every query it receives
type recordingDriver struct {
	mu  sync.Mutex
	dbs map[string]*recordingDB
}

type recordingDB struct {
	mu      sync.Mutex
	queries []string
	rows    [][]driver.Value
}

var testDriver = &recordingDriver{dbs: make(map[string]*recordingDB)}

func init() {
	sql.Register("cvaudit-recording", testDriver)
}

func (d *recordingDriver) Open(name string) (driver.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, ok := d.dbs[name]
	if !ok {
		db = &recordingDB{}
		d.dbs[name] = db
	}
	return &recordingConn{db: db}, nil
}

type recordingConn struct {
	db *recordingDB
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

func (c *recordingConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	c.db.queries = append(c.db.queries, query)
	switch {
	case strings.HasPrefix(query, "INSERT INTO"):
		row := make([]driver.Value, len(args))
		for _, arg := range args {
			row[arg.Ordinal-1] = arg.Value
		}
		c.db.rows = append(c.db.rows, row)
	case strings.HasPrefix(query, "TRUNCATE"):
		c.db.rows = nil
	}
	return driver.RowsAffected(1), nil
}

func (c *recordingConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	c.db.queries = append(c.db.queries, query)
	return &recordingRows{rows: append([][]driver.Value(nil), c.db.rows...)}, nil
}

type recordingRows struct {
	rows [][]driver.Value
}

func (r *recordingRows) Columns() []string {
	return []string{"name", "student_id", "score", "audit_details", "submitted_at"}
}

func (r *recordingRows) Close() error { return nil }

func (r *recordingRows) Next(dest []driver.Value) error {
	if len(r.rows) == 0 {
		return io.EOF
	}
	copy(dest, r.rows[0])
	r.rows = r.rows[1:]
	return nil
}

func (d *recordingDriver) db(name string) *recordingDB {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dbs[name]
}

func (db *recordingDB) statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.queries...)
}

// TestPostgresStore_Statements runs the store contract over the recording driver and checks
// the SQL it issues
func TestPostgresStore_Statements(t *testing.T) {
	db, err := sql.Open("cvaudit-recording", t.Name())
	require.NoError(t, err)

	s, err := NewPostgresStoreFromDB(context.Background(), db, `audit"records`)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	recorded := testDriver.db(t.Name())
	require.NotNil(t, recorded)
	statements := recorded.statements()
	require.NotEmpty(t, statements)

	quoted := `"audit""records"`
	assert.True(t, strings.HasPrefix(statements[0], "CREATE TABLE IF NOT EXISTS "+quoted))
	assert.Contains(t, statements[0], "seq           BIGSERIAL PRIMARY KEY")

	var selects, truncates, inserts int
	for _, q := range statements {
		switch {
		case strings.HasPrefix(q, "SELECT"):
			selects++
			assert.Contains(t, q, "FROM "+quoted+" ORDER BY seq")
		case strings.HasPrefix(q, "TRUNCATE"):
			truncates++
			assert.Equal(t, "TRUNCATE "+quoted+" RESTART IDENTITY", q)
		case strings.HasPrefix(q, "INSERT INTO"):
			inserts++
			assert.Contains(t, q, "INSERT INTO "+quoted+" (name, student_id, score, audit_details, submitted_at)")
		}
	}
	assert.Equal(t, 4, selects)
	assert.Equal(t, 1, truncates)
	assert.Equal(t, 3, inserts)
}
