package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/schedulo/internal/domain"
	"github.com/spec-kit/schedulo/internal/events"
	"github.com/spec-kit/schedulo/internal/repository/memory"
)

type recordingDispatcher struct {
	mu        sync.Mutex
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.published = append(d.published, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func TestNotifyAllocations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	allocs := env.stores.Allocations.(*memory.AllocationStore)

	cred := env.seed(t, domain.RoleFaculty, "FAC001", "faculty@test.com", "password123", true)
	upload := &domain.FacultyUpload{Name: "Staged", Email: "faculty@test.com", EmployeeID: "FAC001"}
	require.NoError(t, env.stores.Uploads.Upsert(ctx, upload))

	exam := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	direct := allocs.Add(domain.Allocation{FacultyID: cred.ID, ExamName: "Physics", ExamDate: exam, Room: "B-201"})
	viaUpload := allocs.Add(domain.Allocation{FacultyID: upload.ID, ExamName: "Maths", ExamDate: exam})

	dispatcher := &recordingDispatcher{}
	svc := NewNotificationService(NotificationDependencies{
		Allocations: env.stores.Allocations,
		Faculty:     env.stores.Faculty,
		Uploads:     env.stores.Uploads,
		Dispatcher:  dispatcher,
		Mailer:      env.mailer,
	}, env.logger)

	res, err := svc.NotifyAllocations(ctx, []string{direct.ID, viaUpload.ID, "missing"}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Notified)
	assert.Equal(t, 2, res.EmailsSent)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 2, env.mailer.count())

	require.Len(t, dispatcher.published, 3)
	assert.Equal(t, events.EventAllocationUpdated, dispatcher.published[0].Type)
	assert.Equal(t, []string{events.UserRoom(cred.ID)}, dispatcher.published[0].Rooms)
	assert.ElementsMatch(t, []string{events.UserRoom(upload.ID), events.UserRoom(cred.ID)}, dispatcher.published[1].Rooms)

	complete := dispatcher.published[2]
	assert.Equal(t, events.EventAllocationComplete, complete.Type)
	assert.ElementsMatch(t, []string{events.RoleRoom(domain.RoleAdmin), events.RoleRoom(domain.RoleHOD)}, complete.Rooms)
}

func TestNotifyAllocationsRequiresIDs(t *testing.T) {
	env := newTestEnv(t)
	svc := NewNotificationService(NotificationDependencies{Dispatcher: &recordingDispatcher{}}, env.logger)
	_, err := svc.NotifyAllocations(context.Background(), nil, false)
	assert.Error(t, err)
}
