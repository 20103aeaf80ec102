package pgdeliver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/deliver"
	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func TestDeliver_RejectsUnknownOperationBeforeTouchingDB(t *testing.T) {
	// a nil handle proves no query is attempted
	d := NewWithDB(nil)
	_, err := d.Deliver(context.Background(), &model.OutboxEntry{DeliveryKey: "x", Operation: "teleport"})
	require.Error(t, err)
	assert.True(t, deliver.IsPermanent(err))
}
