//go:build integration_ch
// +build integration_ch

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

func startClickhouse(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "clickhouse/clickhouse-server:24.8-alpine",
			ExposedPorts: []string{"9000/tcp", "8123/tcp"},
			Env: map[string]string{
				"CLICKHOUSE_USER":     "vqa",
				"CLICKHOUSE_PASSWORD": "vqa",
				"CLICKHOUSE_DB":       "vqa",
			},
			WaitingFor: wait.ForHTTP("/ping").WithPort("8123/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "9000/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("clickhouse://vqa:vqa@%s:%s/vqa", host, port.Port())
}

func TestCH_RoundTrip_Integration(t *testing.T) {
	dsn := startClickhouse(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{
		AppName: "vqa-merge-it",
		CH:      store.CHConfig{Enabled: true, URL: dsn, ClientRole: "it", DialTimeout: 10 * time.Second},
	})
	require.NoError(t, err)
	defer func() { _ = st.Close(context.Background()) }()

	require.NoError(t, EnsureCHTable(ctx, st.CH, "vqa_merged"))

	run := uuid.NewString()
	s := NewCH(st.CH, "vqa_merged", run, 2)
	require.NoError(t, s.Write(ctx, rec(1, `100`, "[text] Is it red?", "yes")))
	require.NoError(t, s.Write(ctx, rec(2, `"COCO_val_2"`, "[text] café?", "日本")))
	require.NoError(t, s.Write(ctx, rec(5, `7`, "[text] q", "no")))
	sum, err := s.Close(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, sum.Records)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}
