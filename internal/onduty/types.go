package onduty

import "time"

// Role distinguishes the two principal kinds that can authenticate.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Identity is an authenticated principal. It is produced by Authenticate and
// passed explicitly into every service call; nothing is inferred from ambient
// state.
type Identity struct {
	ID     string `json:"id"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
	RollNo string `json:"roll_no,omitempty"`
}

// RequestStatus is the review state of an on-duty request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusRejected RequestStatus = "Rejected"
)

// ValidStatus reports whether s is one of the three known states.
func ValidStatus(s RequestStatus) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Period is the span of each requested day.
type Period string

const (
	PeriodHalfDay Period = "Half Day"
	PeriodFullDay Period = "Full Day"
)

// FileData is an attachment blob with metadata. Content travels as a portable
// data URL; the store keeps it verbatim and never inspects it.
type FileData struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
	DataURL     string `json:"data_url"`
}

// StudentUser is a roster entry. The secret is held only as a bcrypt hash and
// never serialized.
type StudentUser struct {
	ID         string `json:"id"`
	SecretHash []byte `json:"-"`
	Name       string `json:"name"`
	RollNo     string `json:"roll_no"`
}

// OnDutyRequest records a student's absence for an approved off-campus reason.
// Dates are YYYY-MM-DD strings; ordering is a form-level concern and is not
// enforced here.
type OnDutyRequest struct {
	ID             string        `json:"id"`
	SubmittedBy    string        `json:"submitted_by"`
	Name           string        `json:"name"`
	RollNo         string        `json:"roll_no"`
	Semester       string        `json:"semester"`
	AcademicYear   string        `json:"academic_year"`
	Batch          string        `json:"batch"`
	Reason         string        `json:"reason"`
	CollegeName    string        `json:"college_name"`
	Period         Period        `json:"period"`
	FromDate       string        `json:"from_date"`
	ToDate         string        `json:"to_date"`
	TagPhoto       *FileData     `json:"tag_photo,omitempty"`
	ApprovalLetter *FileData     `json:"approval_letter,omitempty"`
	Certificate    *FileData     `json:"certificate,omitempty"`
	Status         RequestStatus `json:"status"`
}

// RequestDraft carries the submitter-provided fields of a new request.
// ID, status and ownership are assigned by the service.
type RequestDraft struct {
	Name           string    `json:"name"`
	RollNo         string    `json:"roll_no"`
	Semester       string    `json:"semester"`
	AcademicYear   string    `json:"academic_year"`
	Batch          string    `json:"batch"`
	Reason         string    `json:"reason"`
	CollegeName    string    `json:"college_name"`
	Period         Period    `json:"period"`
	FromDate       string    `json:"from_date"`
	ToDate         string    `json:"to_date"`
	TagPhoto       *FileData `json:"tag_photo,omitempty"`
	ApprovalLetter *FileData `json:"approval_letter,omitempty"`
	Certificate    *FileData `json:"certificate,omitempty"`
}

// AuditLogEntry is an immutable record of one administrative action.
type AuditLogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	AdminID   string    `json:"admin_id"`
	Action    string    `json:"action"`
}

// UserPatch describes an update to an existing roster entry. A blank Secret
// means "keep the stored secret".
type UserPatch struct {
	ID     string `json:"id"`
	Secret string `json:"secret"`
	Name   string `json:"name"`
	RollNo string `json:"roll_no"`
}
