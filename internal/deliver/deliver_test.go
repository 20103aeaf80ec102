package deliver

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbitsound/orbitsound-sync/internal/model"
)

func TestPermanentError_IsAndUnwrap(t *testing.T) {
	cause := errors.New("422")
	err := fmt.Errorf("deliver 7: %w", NewPermanentError("rejected", cause))
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "rejected")
	assert.False(t, IsPermanent(cause))
}

func TestFunc_AdaptsFunction(t *testing.T) {
	ts := time.Now()
	var d Deliverer = Func(func(context.Context, *model.OutboxEntry) (Receipt, error) {
		return Receipt{ServerTimestamp: ts}, nil
	})
	r, err := d.Deliver(context.Background(), &model.OutboxEntry{})
	require.NoError(t, err)
	assert.Equal(t, ts, r.ServerTimestamp)
}
