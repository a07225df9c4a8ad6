package onduty

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Service orchestrates authentication, the request lifecycle and roster
// management over a Store. Every call takes the caller's Identity explicitly;
// there is no ambient session.
type Service struct {
	store *Store
}

// NewService creates a service backed by a store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// -------- Authentication --------

// Authenticate checks credentials for the given role. Any failure, unknown id
// or secret mismatch alike, yields ErrInvalidCredentials.
func (s *Service) Authenticate(id, secret string, role Role) (Identity, error) {
	switch role {
	case RoleStudent:
		u, ok := s.store.Student(id)
		if !ok {
			return Identity{}, ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword(u.SecretHash, []byte(secret)) != nil {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{ID: u.ID, Role: RoleStudent, Name: u.Name, RollNo: u.RollNo}, nil
	case RoleAdmin:
		hash, ok := s.store.AdminSecretHash(id)
		if !ok {
			return Identity{}, ErrInvalidCredentials
		}
		if bcrypt.CompareHashAndPassword(hash, []byte(secret)) != nil {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{ID: id, Role: RoleAdmin}, nil
	}
	return Identity{}, ErrInvalidCredentials
}

// -------- Request lifecycle --------

// SubmitRequest creates a Pending request owned by the calling student. Draft
// fields are copied verbatim; date ordering is the submitting form's concern.
// Submissions are not audited, only administrative actions are.
func (s *Service) SubmitRequest(ident Identity, draft RequestDraft) (OnDutyRequest, error) {
	if ident.Role != RoleStudent {
		return OnDutyRequest{}, fmt.Errorf("%w: submit requires a student", ErrForbidden)
	}
	req := OnDutyRequest{
		ID:             newID("req"),
		SubmittedBy:    ident.ID,
		Name:           draft.Name,
		RollNo:         draft.RollNo,
		Semester:       draft.Semester,
		AcademicYear:   draft.AcademicYear,
		Batch:          draft.Batch,
		Reason:         draft.Reason,
		CollegeName:    draft.CollegeName,
		Period:         draft.Period,
		FromDate:       draft.FromDate,
		ToDate:         draft.ToDate,
		TagPhoto:       cloneFile(draft.TagPhoto),
		ApprovalLetter: cloneFile(draft.ApprovalLetter),
		Certificate:    cloneFile(draft.Certificate),
		Status:         StatusPending,
	}
	s.store.AppendRequest(req)
	return req.clone(), nil
}

// UpdateRequestStatus sets a request's review state and records the decision
// in the audit log. An unknown request id is a documented no-op (ok=false,
// no error, no audit entry). Re-deciding an already-decided request is
// allowed; every decision appends a fresh entry.
func (s *Service) UpdateRequestStatus(ident Identity, requestID string, status RequestStatus) (OnDutyRequest, bool, error) {
	if ident.Role != RoleAdmin {
		return OnDutyRequest{}, false, fmt.Errorf("%w: status updates require an administrator", ErrForbidden)
	}
	if !ValidStatus(status) {
		return OnDutyRequest{}, false, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	updated, ok := s.store.SetRequestStatus(ident.ID, requestID, status)
	return updated, ok, nil
}

// -------- Roster management --------

// CreateUser adds a student to the roster. All fields are required; a taken
// id leaves the roster unchanged. The action is audited only when the caller
// is an administrator.
func (s *Service) CreateUser(ident Identity, id, secret, name, rollNo string) (StudentUser, error) {
	if err := requireFields(map[string]string{
		"id": id, "secret": secret, "name": name, "roll_no": rollNo,
	}); err != nil {
		return StudentUser{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.store.cost)
	if err != nil {
		return StudentUser{}, fmt.Errorf("hash secret: %w", err)
	}
	u := StudentUser{ID: id, SecretHash: hash, Name: name, RollNo: rollNo}
	if err := s.store.AddStudent(auditActor(ident), u); err != nil {
		return StudentUser{}, err
	}
	return u, nil
}

// UpdateUser replaces the roster entry matching patch.ID. A blank secret
// keeps the stored one; a non-blank secret is rehashed. Returns ok=false when
// the id is unknown.
func (s *Service) UpdateUser(ident Identity, patch UserPatch) (StudentUser, bool, error) {
	if err := requireFields(map[string]string{
		"id": patch.ID, "name": patch.Name, "roll_no": patch.RollNo,
	}); err != nil {
		return StudentUser{}, false, err
	}
	u := StudentUser{ID: patch.ID, Name: patch.Name, RollNo: patch.RollNo}
	keepSecret := strings.TrimSpace(patch.Secret) == ""
	if !keepSecret {
		hash, err := bcrypt.GenerateFromPassword([]byte(patch.Secret), s.store.cost)
		if err != nil {
			return StudentUser{}, false, fmt.Errorf("hash secret: %w", err)
		}
		u.SecretHash = hash
	}
	stored, ok := s.store.ReplaceStudent(auditActor(ident), u, keepSecret)
	return stored, ok, nil
}

// DeleteUser removes a student and every request they submitted as one atomic
// operation. The caller's surface is expected to have confirmed the action;
// the service deletes unconditionally.
func (s *Service) DeleteUser(ident Identity, id string) (int, bool) {
	return s.store.RemoveStudent(auditActor(ident), id)
}

// -------- Read accessors --------

// Requests lists every request in submission order.
func (s *Service) Requests() []OnDutyRequest { return s.store.Requests() }

// RequestsBy lists the requests submitted by one student.
func (s *Service) RequestsBy(studentID string) []OnDutyRequest { return s.store.RequestsBy(studentID) }

// Users lists the student roster.
func (s *Service) Users() []StudentUser { return s.store.Students() }

// AuditLog lists administrative actions, newest first.
func (s *Service) AuditLog() []AuditLogEntry { return s.store.AuditLog() }

// -------- Helpers --------

// DurationDays is the display duration of a request in days, inclusive of
// both endpoints. Inverted or unparseable ranges yield 0.
func DurationDays(fromDate, toDate string) int {
	const layout = "2006-01-02"
	from, err := time.Parse(layout, fromDate)
	if err != nil {
		return 0
	}
	to, err := time.Parse(layout, toDate)
	if err != nil {
		return 0
	}
	if to.Before(from) {
		return 0
	}
	days := int(to.Sub(from).Round(24*time.Hour)/(24*time.Hour)) + 1
	return days
}

// auditActor maps an identity to the audit attribution id: administrators are
// named, everyone else leaves no entry.
func auditActor(ident Identity) string {
	if ident.Role == RoleAdmin {
		return ident.ID
	}
	return ""
}

func requireFields(fields map[string]string) error {
	var missing []string
	for name, value := range fields {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
}
