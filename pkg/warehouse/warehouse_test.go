package warehouse

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/i94dw/pkg/compression"
	"github.com/ajitpratap0/i94dw/pkg/errors"
	"github.com/ajitpratap0/i94dw/pkg/metrics"
	"github.com/ajitpratap0/i94dw/pkg/schema"
	pkgtestutil "github.com/ajitpratap0/i94dw/pkg/testutil"
)

// fakeSession simulates a warehouse well enough to observe table state.
type fakeSession struct {
	stmts  []string
	tables map[string]bool
	failOn string
	closed bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{tables: map[string]bool{}}
}

func (s *fakeSession) Exec(_ context.Context, stmt string) error {
	if s.failOn != "" && strings.HasPrefix(stmt, s.failOn) {
		return fmt.Errorf("relation does not exist")
	}
	s.stmts = append(s.stmts, stmt)
	fields := strings.Fields(stmt)
	switch {
	case strings.HasPrefix(stmt, "DROP TABLE IF EXISTS"):
		delete(s.tables, fields[4])
	case strings.HasPrefix(stmt, "CREATE TABLE IF NOT EXISTS"):
		s.tables[fields[5]] = true
	}
	return nil
}

func (s *fakeSession) Close(context.Context) error {
	s.closed = true
	return nil
}

func TestCreateStatement(t *testing.T) {
	fact, ok := schema.StarByName(schema.ImmigrationFact)
	require.True(t, ok)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS immigration_fact (id INTEGER PRIMARY KEY, arr_date DATE, "+
			"country_code INTEGER, state_code VARCHAR(10), port VARCHAR(10), "+
			"mode_of_arrival INTEGER NOT NULL, visatype VARCHAR(5) NOT NULL)",
		CreateStatement(fact))
	assert.Equal(t, "DROP TABLE IF EXISTS immigration_fact", DropStatement(fact))
}

func TestCopyStatement(t *testing.T) {
	tests := []struct {
		name string
		spec CopySpec
		want string
	}{
		{
			name: "plain",
			spec: CopySpec{
				Table:   "port_dim",
				Source:  "s3://capstone/output/port_dim/",
				RoleARN: "arn:aws:iam::123456789012:role/dwhRole",
				Region:  "us-west-2",
			},
			want: "COPY port_dim FROM 's3://capstone/output/port_dim/' " +
				"CREDENTIALS 'aws_iam_role=arn:aws:iam::123456789012:role/dwhRole' " +
				"REGION 'us-west-2' DELIMITER ',' REMOVEQUOTES",
		},
		{
			name: "gzip",
			spec: CopySpec{Table: "t", Source: "s3://b/t/", RoleARN: "r", Region: "eu-west-1", Compression: compression.Gzip},
			want: "COPY t FROM 's3://b/t/' CREDENTIALS 'aws_iam_role=r' REGION 'eu-west-1' DELIMITER ',' REMOVEQUOTES GZIP",
		},
		{
			name: "quotes are doubled",
			spec: CopySpec{Table: "t", Source: "s3://b/o'brien/", RoleARN: "r", Region: "x", Compression: compression.Zstd},
			want: "COPY t FROM 's3://b/o''brien/' CREDENTIALS 'aws_iam_role=r' REGION 'x' DELIMITER ',' REMOVEQUOTES ZSTD",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CopyStatement(tt.spec))
		})
	}
}

func TestResetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	session := newFakeSession()
	loader := NewLoader(session, Options{}, pkgtestutil.TestLogger(t))

	require.NoError(t, loader.Reset(ctx))
	first := len(session.tables)
	require.NoError(t, loader.Reset(ctx))

	assert.Equal(t, 8, first)
	assert.Len(t, session.tables, 8)
	assert.Len(t, session.stmts, 32)

	// drops first, then creates, both in load order
	order := schema.LoadOrder()
	for i, tbl := range order {
		assert.Equal(t, DropStatement(tbl), session.stmts[i])
		assert.Equal(t, CreateStatement(tbl), session.stmts[len(order)+i])
	}
}

func TestResetStopsAtFirstFailure(t *testing.T) {
	session := newFakeSession()
	session.failOn = "CREATE TABLE IF NOT EXISTS immigrant_dim"
	rec := metrics.NewRecorder("test")
	loader := NewLoader(session, Options{Metrics: rec}, pkgtestutil.TestLogger(t))

	err := loader.Reset(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDatabase))

	var structured *errors.Error
	require.True(t, errors.As(err, &structured))
	assert.Equal(t, schema.ImmigrantDim, structured.Details["table"])
	assert.Equal(t, "CREATE", structured.Details["statement"])

	// eight drops and the fact create ran, nothing after the failure
	assert.Len(t, session.stmts, 9)
	// drop/success, create/success, create/failure
	n, err := testutil.GatherAndCount(rec.Registry(), "i94dw_statements_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestLoad(t *testing.T) {
	store := pkgtestutil.FileStore(t)
	session := newFakeSession()
	loader := NewLoader(session, Options{
		RoleARN:     "arn:aws:iam::1:role/r",
		Region:      "us-west-2",
		Compression: compression.Gzip,
		Sources:     map[string]string{schema.PortDim: "s3://elsewhere/ports/"},
		Output:      store,
	}, pkgtestutil.TestLogger(t))

	require.NoError(t, loader.Load(context.Background()))
	require.Len(t, session.stmts, 8)

	for i, tbl := range schema.LoadOrder() {
		stmt := session.stmts[i]
		assert.True(t, strings.HasPrefix(stmt, "COPY "+tbl.Name+" FROM "), stmt)
		assert.True(t, strings.HasSuffix(stmt, "REMOVEQUOTES GZIP"), stmt)
	}
	assert.Contains(t, session.stmts[4], "FROM 's3://elsewhere/ports/'")
	assert.Contains(t, session.stmts[0], "FROM '"+store.URI(schema.ImmigrationFact+"/")+"'")
}

func TestLoadWithoutSource(t *testing.T) {
	loader := NewLoader(newFakeSession(), Options{}, nil)
	err := loader.Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := newFakeSession()
	loader := NewLoader(session, Options{Sources: allSources()}, nil)

	err := loader.Load(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, session.stmts)
}

func allSources() map[string]string {
	out := map[string]string{}
	for _, t := range schema.Star() {
		out[t.Name] = "s3://b/" + t.Name + "/"
	}
	return out
}

func TestConnConfig(t *testing.T) {
	cfg, err := ConnConfig("postgres://awsuser:pw@dwh.example.com:5439/dev?sslmode=disable")
	require.NoError(t, err)
	assert.Equal(t, pgx.QueryExecModeSimpleProtocol, cfg.DefaultQueryExecMode)
	assert.Equal(t, "dwh.example.com", cfg.Host)
	assert.Equal(t, uint16(5439), cfg.Port)
	assert.Equal(t, "dev", cfg.Database)

	_, err = ConnConfig("postgres://host:notaport/db")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

// fakeTx implements the parts of pgx.Tx the session touches.
type fakeTx struct {
	pgx.Tx
	conn *fakeConn
}

func (tx *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	if tx.conn.execErr != nil {
		return pgconn.CommandTag{}, tx.conn.execErr
	}
	tx.conn.executed = append(tx.conn.executed, sql)
	return pgconn.NewCommandTag("OK"), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.conn.commits++
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.conn.rollbacks++
	return pgx.ErrTxClosed
}

type fakeConn struct {
	executed  []string
	execErr   error
	commits   int
	rollbacks int
	closed    bool
}

func (c *fakeConn) Begin(context.Context) (pgx.Tx, error) { return &fakeTx{conn: c}, nil }

func (c *fakeConn) Close(context.Context) error {
	c.closed = true
	return nil
}

func TestPgxSessionCommitsEachStatement(t *testing.T) {
	conn := &fakeConn{}
	s := newPgxSession(conn)

	require.NoError(t, s.Exec(context.Background(), "DROP TABLE IF EXISTS a"))
	require.NoError(t, s.Exec(context.Background(), "DROP TABLE IF EXISTS b"))
	assert.Equal(t, []string{"DROP TABLE IF EXISTS a", "DROP TABLE IF EXISTS b"}, conn.executed)
	assert.Equal(t, 2, conn.commits)

	conn.execErr = fmt.Errorf("syntax error")
	require.Error(t, s.Exec(context.Background(), "DROP TABLE c"))
	assert.Equal(t, 2, conn.commits)

	require.NoError(t, s.Close(context.Background()))
	assert.True(t, conn.closed)
}
