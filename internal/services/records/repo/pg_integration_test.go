//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vqamerge/internal/platform/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
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
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, port.Port())
}

func TestPG_RoundTrip_Integration(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "vqa-merge-it",
		PG:      store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2, ConnectRetries: 10, PingTimeout: 3 * time.Second},
	})
	require.NoError(t, err)
	defer func() { _ = st.Close(context.Background()) }()

	require.NoError(t, EnsurePGTable(ctx, st.PG, "vqa_merged"))
	require.NoError(t, EnsurePGTable(ctx, st.PG, "vqa_merged"))

	run := uuid.NewString()
	s := NewPG(st.PG, "vqa_merged", run, 2)
	require.NoError(t, s.Write(ctx, rec(1, `100`, "[text] Is it red?", "yes")))
	require.NoError(t, s.Write(ctx, rec(3, `"COCO_val_3"`, "[text] café?", "日本")))
	require.NoError(t, s.Write(ctx, rec(4, `{"a": 1}`, "[text] q", "")))
	sum, err := s.Close(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, sum.Records)

	img, err := store.Scalar[string](ctx, st.PG, "SELECT image_id::text FROM vqa_merged WHERE run_id = $1 AND id = 4", run)
	require.NoError(t, err)
	require.Equal(t, `{"a": 1}`, img)

	replay := NewPG(st.PG, "vqa_merged", run, 10)
	require.NoError(t, replay.Write(ctx, rec(1, `100`, "[text] Is it red?", "yes")))
	sum, err = replay.Close(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, sum.Records)
}
