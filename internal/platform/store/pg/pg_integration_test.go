//go:build integration_pg
// +build integration_pg

package pg

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres unchanged except: give more timeouts for first image pull
func startPostgres(t *testing.T) (dsn string, stop func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)

	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "postgres",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(2 * time.Minute),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		cancel()
		t.Fatalf("failed to start postgres container: %v", err)
	}

	host, err := c.Host(ctx)
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		_ = c.Terminate(context.Background())
		cancel()
		t.Fatalf("failed to get mapped port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mapped.Port())
	stop = func() {
		_ = c.Terminate(context.Background())
		cancel()
	}
	return dsn, stop
}

func TestOpen_AppNameAndTempTable_Integration(t *testing.T) {
	dsn, stop := startPostgres(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	p, err := Open(ctx, Config{URL: dsn, MaxConns: 2, AppName: "vqa-merge-it"}, nil, func(pc *pgxpool.Config) {
		pc.MinConns = 1
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer p.Close()

	// single session so the TEMP table survives between statements
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer conn.Release()

	var gotApp string
	if err := conn.QueryRow(ctx, `select current_setting('application_name')`).Scan(&gotApp); err != nil {
		t.Fatalf("check app name: %v", err)
	}
	if gotApp != "vqa-merge-it" {
		t.Fatalf("application_name mismatch: got %q", gotApp)
	}

	if _, err := conn.Exec(ctx, `create temporary table t (id bigint primary key, image_id jsonb not null)`); err != nil {
		t.Fatalf("create temp table: %v", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`insert into t (id, image_id) values ($1, $2::jsonb)`, 1, `"COCO_1"`)
	batch.Queue(`insert into t (id, image_id) values ($1, $2::jsonb)`, 3, `42`)
	br := conn.SendBatch(ctx, batch)
	for i := 0; i < 2; i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if err := br.Close(); err != nil {
		t.Fatalf("batch close: %v", err)
	}

	type row struct {
		ID      int64
		ImageID string
	}
	rows, err := conn.Query(ctx, `select id, image_id::text from t order by id`)
	if err != nil {
		t.Fatalf("query rows: %v", err)
	}
	got, err := pgx.CollectRows(rows, pgx.RowToStructByPos[row])
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(got) != 2 || got[0].ImageID != `"COCO_1"` || got[1].ID != 3 || got[1].ImageID != "42" {
		t.Fatalf("unexpected rows: %#v", got)
	}
}
