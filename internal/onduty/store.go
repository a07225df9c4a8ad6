package onduty

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Store is the in-memory state container: admin credentials, the student
// roster, the request collection and the audit log. State is transient and
// lost on restart.
//
// A single RWMutex guards everything so that each compound mutation
// (lookup, mutate, audit) is one atomic unit even when the store is shared
// by concurrent HTTP clients.
type Store struct {
	mu sync.RWMutex

	admins   map[string][]byte // admin id -> bcrypt hash, fixed after construction
	students []StudentUser
	requests []OnDutyRequest
	audit    []AuditLogEntry // newest first

	cost int
}

// NewStore builds a store with the given admin credentials. Secrets are
// bcrypt-hashed at rest; cost <= 0 selects bcrypt.DefaultCost.
func NewStore(adminCreds map[string]string, cost int) (*Store, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	admins := make(map[string][]byte, len(adminCreds))
	for id, secret := range adminCreds {
		hash, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
		if err != nil {
			return nil, fmt.Errorf("hash admin secret for %q: %w", id, err)
		}
		admins[id] = hash
	}
	return &Store{admins: admins, cost: cost}, nil
}

// -------- Credentials --------

// AdminSecretHash returns the stored hash for an admin id.
func (st *Store) AdminSecretHash(id string) ([]byte, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	hash, ok := st.admins[id]
	return hash, ok
}

// -------- Students --------

// Student returns a copy of the roster entry with the given id.
func (st *Store) Student(id string) (StudentUser, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	for _, u := range st.students {
		if u.ID == id {
			return u, true
		}
	}
	return StudentUser{}, false
}

// Students returns a copy of the roster in insertion order.
func (st *Store) Students() []StudentUser {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]StudentUser, len(st.students))
	copy(out, st.students)
	return out
}

// AddStudent appends a roster entry. The id must be unused; on conflict the
// roster is untouched and ErrDuplicateID is returned. A non-empty adminID
// attributes the action to that administrator in the audit log.
func (st *Store) AddStudent(adminID string, u StudentUser) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, existing := range st.students {
		if existing.ID == u.ID {
			return fmt.Errorf("%w: %q", ErrDuplicateID, u.ID)
		}
	}
	st.students = append(st.students, u)
	if adminID != "" {
		st.appendAuditLocked(adminID, fmt.Sprintf("Created new user: %s (%s).", u.Name, u.ID))
	}
	return nil
}

// ReplaceStudent swaps the roster entry matching u.ID wholesale. When
// keepSecret is true the previous hash is carried forward regardless of
// u.SecretHash. Returns the stored entry and whether the id was found.
func (st *Store) ReplaceStudent(adminID string, u StudentUser, keepSecret bool) (StudentUser, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, existing := range st.students {
		if existing.ID != u.ID {
			continue
		}
		if keepSecret {
			u.SecretHash = existing.SecretHash
		}
		st.students[i] = u
		if adminID != "" {
			st.appendAuditLocked(adminID, fmt.Sprintf("Updated user profile for %s (%s).", u.Name, u.ID))
		}
		return u, true
	}
	return StudentUser{}, false
}

// RemoveStudent deletes the roster entry and cascades to every request it
// submitted, as one atomic operation. Returns the number of requests removed
// and whether the student existed.
func (st *Store) RemoveStudent(adminID, id string) (int, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	found := false
	students := st.students[:0]
	for _, u := range st.students {
		if u.ID == id {
			found = true
			continue
		}
		students = append(students, u)
	}
	if !found {
		return 0, false
	}
	st.students = students

	removed := 0
	requests := st.requests[:0]
	for _, r := range st.requests {
		if r.SubmittedBy == id {
			removed++
			continue
		}
		requests = append(requests, r)
	}
	st.requests = requests

	if adminID != "" {
		st.appendAuditLocked(adminID, fmt.Sprintf("Deleted user %q and all associated requests.", id))
	}
	return removed, true
}

// -------- Requests --------

// AppendRequest adds a request to the collection.
func (st *Store) AppendRequest(req OnDutyRequest) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.requests = append(st.requests, req)
}

// Requests returns a copy of every request in submission order.
func (st *Store) Requests() []OnDutyRequest {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]OnDutyRequest, len(st.requests))
	for i, r := range st.requests {
		out[i] = r.clone()
	}
	return out
}

// RequestsBy returns the requests submitted by one student.
func (st *Store) RequestsBy(studentID string) []OnDutyRequest {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []OnDutyRequest
	for _, r := range st.requests {
		if r.SubmittedBy == studentID {
			out = append(out, r.clone())
		}
	}
	return out
}

// SetRequestStatus replaces the matching request with a copy whose status
// changed and appends one audit entry built from the pre-mutation name and
// roll number. An unknown id is a no-op: stores untouched, no audit entry,
// ok=false.
func (st *Store) SetRequestStatus(adminID, requestID string, status RequestStatus) (OnDutyRequest, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for i, r := range st.requests {
		if r.ID != requestID {
			continue
		}
		if adminID != "" {
			st.appendAuditLocked(adminID, fmt.Sprintf("%s request for %s (%s).", status, r.Name, r.RollNo))
		}
		updated := r.clone()
		updated.Status = status
		st.requests[i] = updated
		return updated.clone(), true
	}
	return OnDutyRequest{}, false
}

// -------- Audit log --------

// AuditLog returns a copy of the audit trail, newest first.
func (st *Store) AuditLog() []AuditLogEntry {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]AuditLogEntry, len(st.audit))
	copy(out, st.audit)
	return out
}

// appendAuditLocked prepends an entry; callers hold the write lock.
func (st *Store) appendAuditLocked(adminID, action string) {
	entry := AuditLogEntry{
		ID:        newID("log"),
		Timestamp: time.Now().UTC(),
		AdminID:   adminID,
		Action:    action,
	}
	st.audit = append([]AuditLogEntry{entry}, st.audit...)
}

// clone copies a request including its attachment pointers so callers cannot
// reach back into stored state.
func (r OnDutyRequest) clone() OnDutyRequest {
	out := r
	out.TagPhoto = cloneFile(r.TagPhoto)
	out.ApprovalLetter = cloneFile(r.ApprovalLetter)
	out.Certificate = cloneFile(r.Certificate)
	return out
}

func cloneFile(f *FileData) *FileData {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}
