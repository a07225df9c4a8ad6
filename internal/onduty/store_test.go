package onduty

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(map[string]string{"admin": "adminpass"}, bcrypt.MinCost)
	require.NoError(t, err)
	return st
}

func TestStore_AuditLogNewestFirst(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, st.AddStudent("admin", StudentUser{
			ID: fmt.Sprintf("u%d", i), Name: fmt.Sprintf("User %d", i), RollNo: "R",
		}))
	}

	log := st.AuditLog()
	require.Len(t, log, 3)
	require.Equal(t, "Created new user: User 2 (u2).", log[0].Action)
	require.Equal(t, "Created new user: User 0 (u0).", log[2].Action)

	// entry ids come from a monotonic source
	require.Greater(t, log[0].ID, log[1].ID)
	require.Greater(t, log[1].ID, log[2].ID)
}

func TestStore_ReturnsCopies(t *testing.T) {
	st := newTestStore(t)
	st.AppendRequest(OnDutyRequest{
		ID:          "req-1",
		SubmittedBy: "u1",
		Status:      StatusPending,
		TagPhoto:    &FileData{Name: "tag.jpg", ContentType: "image/jpeg", DataURL: "data:..."},
	})

	got := st.Requests()
	got[0].Status = StatusApproved
	got[0].TagPhoto.Name = "mutated.jpg"

	fresh := st.Requests()
	require.Equal(t, StatusPending, fresh[0].Status)
	require.Equal(t, "tag.jpg", fresh[0].TagPhoto.Name)
}

func TestStore_SetRequestStatusWithoutActorSkipsAudit(t *testing.T) {
	st := newTestStore(t)
	st.AppendRequest(OnDutyRequest{ID: "req-1", Name: "N", RollNo: "R", Status: StatusPending})

	_, ok := st.SetRequestStatus("", "req-1", StatusApproved)
	require.True(t, ok)
	require.Empty(t, st.AuditLog())
}

// TestStore_ConcurrentAccess exercises the locking: concurrent submissions,
// decisions and reads must not race or lose writes.
func TestStore_ConcurrentAccess(t *testing.T) {
	st := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.AppendRequest(OnDutyRequest{ID: newID("req"), SubmittedBy: "u1", Status: StatusPending})
			_ = st.Requests()
			_ = st.AuditLog()
		}(i)
	}
	wg.Wait()

	require.Len(t, st.Requests(), 50)
}

func TestNewID_MonotonicAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := newID("req")
		require.False(t, seen[id], "duplicate id %s", id)
		require.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
}
