package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"onduty/internal/onduty"
)

func newTestRouter(t *testing.T) (*gin.Engine, *onduty.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := onduty.NewStore(map[string]string{"admin": "adminpass"}, bcrypt.MinCost)
	require.NoError(t, err)
	svc := onduty.NewService(st)
	_, err = svc.CreateUser(onduty.Identity{}, "user123", "password123", "Sanjay Kumar", "7377222IT228")
	require.NoError(t, err)

	h := New(svc, nil, "onduty-test", "test-signing-key", 15*time.Minute, time.Hour)
	r := gin.New()
	h.Register(r)
	return r, svc
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine, id, password, role string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/v1/login", "", gin.H{
		"id": id, "password": password, "role": role,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func sampleDraft() gin.H {
	return gin.H{
		"name":          "Sanjay Kumar",
		"roll_no":       "7377222IT228",
		"semester":      "V",
		"academic_year": "2024-2025",
		"batch":         "2022-2026",
		"reason":        "Hackathon",
		"college_name":  "KR Institutions",
		"period":        "Full Day",
		"from_date":     "2024-01-01",
		"to_date":       "2024-01-03",
	}
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

func TestLogin_InvalidCredentials(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name string
		body gin.H
		want int
	}{
		{"wrong password", gin.H{"id": "user123", "password": "nope", "role": "student"}, http.StatusUnauthorized},
		{"unknown id", gin.H{"id": "ghost", "password": "x", "role": "student"}, http.StatusUnauthorized},
		{"bad role", gin.H{"id": "user123", "password": "password123", "role": "root"}, http.StatusBadRequest},
		{"missing fields", gin.H{"id": "user123"}, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/v1/login", "", tc.body)
			require.Equal(t, tc.want, w.Code)
		})
	}
}

func TestRefresh(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/v1/login", "", gin.H{
		"id": "admin", "password": "adminpass", "role": "admin",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var loginResp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))

	w = doJSON(r, http.MethodPost, "/v1/refresh", "", gin.H{"refresh_token": loginResp.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/v1/refresh", "", gin.H{"refresh_token": "garbage"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/v1/requests", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/v1/audit", "bogus-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

// =============================================================================
// REQUEST FLOW
// =============================================================================

func TestSubmitAndDecideFlow(t *testing.T) {
	r, svc := newTestRouter(t)
	student := login(t, r, "user123", "password123", "student")
	admin := login(t, r, "admin", "adminpass", "admin")

	// student submits
	w := doJSON(r, http.MethodPost, "/v1/requests", student, sampleDraft())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID           string `json:"id"`
		Status       string `json:"status"`
		SubmittedBy  string `json:"submitted_by"`
		DurationDays int    `json:"duration_days"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, "Pending", created.Status)
	require.Equal(t, "user123", created.SubmittedBy)
	require.Equal(t, 3, created.DurationDays)

	// student sees own requests
	w = doJSON(r, http.MethodGet, "/v1/requests", student, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Requests []struct {
			ID string `json:"id"`
		} `json:"requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Requests, 1)

	// admin approves
	w = doJSON(r, http.MethodPost, "/v1/requests/"+created.ID+"/status", admin, gin.H{"status": "Approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// decision shows up in the audit log
	w = doJSON(r, http.MethodGet, "/v1/audit", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var auditResp struct {
		Entries []struct {
			AdminID string `json:"admin_id"`
			Action  string `json:"action"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auditResp))
	require.Len(t, auditResp.Entries, 1)
	require.Equal(t, "admin", auditResp.Entries[0].AdminID)
	require.Equal(t, "Approved request for Sanjay Kumar (7377222IT228).", auditResp.Entries[0].Action)

	// state visible through the service too
	require.Equal(t, onduty.StatusApproved, svc.Requests()[0].Status)
}

func TestDecide_UnknownRequestIs404(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := login(t, r, "admin", "adminpass", "admin")

	w := doJSON(r, http.MethodPost, "/v1/requests/req-missing/status", admin, gin.H{"status": "Rejected"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecide_StudentForbidden(t *testing.T) {
	r, _ := newTestRouter(t)
	student := login(t, r, "user123", "password123", "student")

	w := doJSON(r, http.MethodPost, "/v1/requests/whatever/status", student, gin.H{"status": "Approved"})
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubmit_AdminForbidden(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := login(t, r, "admin", "adminpass", "admin")

	w := doJSON(r, http.MethodPost, "/v1/requests", admin, sampleDraft())
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestListRequests_AdminFilter(t *testing.T) {
	r, svc := newTestRouter(t)
	_, err := svc.CreateUser(onduty.Identity{}, "student", "pass", "Vimal Raj", "7377222IT248")
	require.NoError(t, err)

	s1 := login(t, r, "user123", "password123", "student")
	s2 := login(t, r, "student", "pass", "student")
	admin := login(t, r, "admin", "adminpass", "admin")

	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/v1/requests", s1, sampleDraft()).Code)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/v1/requests", s2, sampleDraft()).Code)

	var listResp struct {
		Requests []struct {
			SubmittedBy string `json:"submitted_by"`
		} `json:"requests"`
	}

	w := doJSON(r, http.MethodGet, "/v1/requests", admin, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Requests, 2)

	w = doJSON(r, http.MethodGet, "/v1/requests?student_id=student", admin, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Requests, 1)
	require.Equal(t, "student", listResp.Requests[0].SubmittedBy)
}

// =============================================================================
// USER MANAGEMENT
// =============================================================================

func TestUserManagementFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := login(t, r, "admin", "adminpass", "admin")

	// create
	w := doJSON(r, http.MethodPost, "/v1/users", admin, gin.H{
		"id": "newkid", "password": "secret", "name": "New Kid", "roll_no": "R99",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// duplicate id conflicts
	w = doJSON(r, http.MethodPost, "/v1/users", admin, gin.H{
		"id": "newkid", "password": "other", "name": "Clone", "roll_no": "R98",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// new student can log in and submit
	kid := login(t, r, "newkid", "secret", "student")
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/v1/requests", kid, sampleDraft()).Code)

	// update, blank password keeps the old one
	w = doJSON(r, http.MethodPut, "/v1/users/newkid", admin, gin.H{
		"name": "Renamed Kid", "roll_no": "R99",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login(t, r, "newkid", "secret", "student")

	// delete requires confirmation
	w = doJSON(r, http.MethodDelete, "/v1/users/newkid", admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodDelete, "/v1/users/newkid?confirm=true", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var delResp struct {
		RemovedRequests int `json:"removed_requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &delResp))
	require.Equal(t, 1, delResp.RemovedRequests)

	// gone now
	w = doJSON(r, http.MethodPost, "/v1/login", "", gin.H{
		"id": "newkid", "password": "secret", "role": "student",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRoutes_StudentForbidden(t *testing.T) {
	r, _ := newTestRouter(t)
	student := login(t, r, "user123", "password123", "student")

	require.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/v1/users", student, nil).Code)
	require.Equal(t, http.StatusForbidden, doJSON(r, http.MethodGet, "/v1/audit", student, nil).Code)
	require.Equal(t, http.StatusForbidden, doJSON(r, http.MethodDelete, "/v1/users/user123?confirm=true", student, nil).Code)
}

func TestUsersNeverExposeSecrets(t *testing.T) {
	r, _ := newTestRouter(t)
	admin := login(t, r, "admin", "adminpass", "admin")

	w := doJSON(r, http.MethodGet, "/v1/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "secret")
	require.NotContains(t, w.Body.String(), "password")
	require.NotContains(t, w.Body.String(), "$2a$") // bcrypt hash prefix
}

// =============================================================================
// UPLOADS
// =============================================================================

func TestUpload_UnconfiguredIs503(t *testing.T) {
	r, _ := newTestRouter(t)
	student := login(t, r, "user123", "password123", "student")

	w := doJSON(r, http.MethodPost, "/v1/uploads", student, gin.H{"data": "data:image/png;base64,AAAA"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
