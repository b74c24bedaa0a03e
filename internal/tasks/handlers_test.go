package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/sarelsmotors/garage/internal/auth"
	"github.com/sarelsmotors/garage/internal/database/models"
	"github.com/sarelsmotors/garage/internal/testutil"
	"github.com/sarelsmotors/garage/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: uuid.NewString(), Type: task.Type()}, nil
}

func TestHandleLoginAudit(t *testing.T) {
	setup := testutil.NewTestContext(t)
	handler := NewHandler(setup.DB, util.Discard())
	enq := &fakeEnqueuer{}
	dispatcher := NewDispatcher(enq, util.Discard())

	at := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	err := dispatcher.RecordLogin(context.Background(), auth.LoginAttempt{
		UserID:         &setup.User.ID,
		OrganizationID: &setup.Org.ID,
		Email:          setup.User.Email,
		Reason:         auth.ReasonBadPassword,
		IP:             "192.0.2.10",
		At:             at,
	})
	require.NoError(t, err)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeLoginAudit, enq.tasks[0].Type())

	require.NoError(t, handler.HandleLoginAudit(context.Background(), enq.tasks[0]))

	var event models.LoginEvent
	require.NoError(t, setup.DB.First(&event).Error)
	assert.Equal(t, setup.User.Email, event.Email)
	assert.False(t, event.Success)
	assert.Equal(t, auth.ReasonBadPassword, event.Reason)
	assert.Equal(t, "192.0.2.10", event.IP)
	require.NotNil(t, event.OrganizationID)
	assert.Equal(t, setup.Org.ID, *event.OrganizationID)
	assert.True(t, at.Equal(event.CreatedAt))
}

func TestHandleLoginAudit_InvalidPayload(t *testing.T) {
	setup := testutil.NewTestContext(t)
	handler := NewHandler(setup.DB, util.Discard())

	err := handler.HandleLoginAudit(context.Background(), asynq.NewTask(TypeLoginAudit, []byte("invalid json")))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal payload")
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleOrganizationPurge(t *testing.T) {
	setup := testutil.NewTestContext(t)
	handler := NewHandler(setup.DB, util.Discard())
	db := setup.DB

	other := testutil.CreateTestOrg(t, db)
	vehicle := testutil.CreateTestVehicle(t, db, testutil.CreateTestCustomer(t, db, setup.Org))
	testutil.CreateTestInvoice(t, db, vehicle, nil, models.InvoiceStatusPaid)
	require.NoError(t, db.Create(&models.LoginEvent{OrganizationID: &setup.Org.ID, Email: setup.User.Email, Success: true}).Error)
	require.NoError(t, db.Create(&models.LoginEvent{OrganizationID: &other.ID, Email: "x@example.com"}).Error)

	task, err := NewOrganizationPurgeTask(OrganizationPurgePayload{OrganizationID: setup.Org.ID, RequestedBy: setup.User.ID})
	require.NoError(t, err)

	require.NoError(t, handler.HandleOrganizationPurge(context.Background(), task))

	var n int64
	db.Model(&models.Organization{}).Count(&n)
	assert.Equal(t, int64(1), n)
	db.Model(&models.User{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.Invoice{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&models.LoginEvent{}).Count(&n)
	assert.Equal(t, int64(1), n, "other tenant's audit rows stay")

	t.Run("second run is a no-op", func(t *testing.T) {
		assert.NoError(t, handler.HandleOrganizationPurge(context.Background(), task))
	})
}

func TestHandleAuditPrune(t *testing.T) {
	setup := testutil.NewTestContext(t)
	handler := NewHandler(setup.DB, util.Discard())
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }

	old := models.LoginEvent{Email: "old@example.com"}
	old.CreatedAt = now.Add(-100 * 24 * time.Hour)
	recent := models.LoginEvent{Email: "recent@example.com"}
	recent.CreatedAt = now.Add(-time.Hour)
	require.NoError(t, setup.DB.Create(&old).Error)
	require.NoError(t, setup.DB.Create(&recent).Error)

	task, err := NewAuditPruneTask(90)
	require.NoError(t, err)
	require.NoError(t, handler.HandleAuditPrune(context.Background(), task))

	var left []models.LoginEvent
	require.NoError(t, setup.DB.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "recent@example.com", left[0].Email)

	t.Run("rejects non-positive retention", func(t *testing.T) {
		task, err := NewAuditPruneTask(0)
		require.NoError(t, err)
		err = handler.HandleAuditPrune(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestDispatcher_EnqueueOrganizationPurge(t *testing.T) {
	orgID := uuid.New()

	t.Run("queues on the critical queue", func(t *testing.T) {
		enq := &fakeEnqueuer{}
		id, err := NewDispatcher(enq, util.Discard()).EnqueueOrganizationPurge(context.Background(), orgID, uuid.New())
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		require.Len(t, enq.tasks, 1)
		assert.Equal(t, TypeOrganizationPurge, enq.tasks[0].Type())
	})

	t.Run("duplicate purge is accepted", func(t *testing.T) {
		enq := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
		id, err := NewDispatcher(enq, util.Discard()).EnqueueOrganizationPurge(context.Background(), orgID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "purge:"+orgID.String(), id)
	})

	t.Run("broker failure surfaces", func(t *testing.T) {
		enq := &fakeEnqueuer{err: errors.New("redis down")}
		_, err := NewDispatcher(enq, util.Discard()).EnqueueOrganizationPurge(context.Background(), orgID, uuid.New())
		assert.Error(t, err)
	})
}
