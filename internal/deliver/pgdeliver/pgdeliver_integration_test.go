//go:build integration

package pgdeliver

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "orbit",
			"POSTGRES_PASSWORD": "orbit",
			"POSTGRES_DB":       "orbit",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://orbit:orbit@%s:%s/orbit?sslmode=disable", host, port.Port())
}

func TestDeliverer_DedupesOnDeliveryKey(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, startPostgres(t))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()
	require.NoError(t, d.Bootstrap(ctx))
	require.NoError(t, d.Bootstrap(ctx), "bootstrap must be re-runnable")

	e := &model.OutboxEntry{
		OwnerID:     "u1",
		DeliveryKey: "dk-1",
		Operation:   model.OpUpsertInterests,
		Payload:     map[string]interface{}{"interests": []string{"jazz"}, "version": 1},
		CreatedAt:   time.Now().UTC(),
	}
	first, err := d.Deliver(ctx, e)
	require.NoError(t, err)
	second, err := d.Deliver(ctx, e)
	require.NoError(t, err)
	assert.True(t, first.ServerTimestamp.Equal(second.ServerTimestamp), "redelivery returns the original receipt")

	var n int
	require.NoError(t, d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_events WHERE delivery_key = $1`, "dk-1").Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, d.HealthPing(ctx))
}

func TestDeliverer_UnknownOperationIsPermanent(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, startPostgres(t))
	require.NoError(t, err)
	defer func() { _ = d.Close() }()

	_, err = d.Deliver(ctx, &model.OutboxEntry{DeliveryKey: "x", Operation: "teleport"})
	require.Error(t, err)
	assert.True(t, deliver.IsPermanent(err))
}
