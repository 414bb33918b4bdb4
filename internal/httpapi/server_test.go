package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/m-troja/taskstorm/internal/config"
	"github.com/m-troja/taskstorm/internal/db"
	"github.com/m-troja/taskstorm/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	cfg, err := config.Parse([]byte("jwt:\n  secret: unit-test-secret\n"))
	if err != nil {
		panic(err)
	}
	return cfg
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	if err := db.Seed(gdb); err != nil {
		t.Fatalf("seed test db: %v", err)
	}

	router, err := NewRouter(StartOpts{DB: gdb, Config: testConfig()})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return router, gdb
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// registerAndLogin creates an account over the API and returns its access
// token and user id.
func registerAndLogin(t *testing.T, router *gin.Engine, email string) (string, int) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/v1/register", "", map[string]string{
		"firstName": "Test", "lastName": "User", "email": email, "password": "pw-12345",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	var u struct {
		ID int `json:"id"`
	}
	decode(t, w, &u)

	w = doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": email, "password": "pw-12345",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	var pair struct {
		AccessToken struct {
			Token string `json:"token"`
		} `json:"accessToken"`
	}
	decode(t, w, &pair)
	return pair.AccessToken.Token, u.ID
}

func TestRegister_DuplicateEmailConflict(t *testing.T) {
	router, gdb := setupRouter(t)
	registerAndLogin(t, router, "ada@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/register", "", map[string]string{
		"firstName": "Other", "lastName": "Person",
		"email": "ada@example.com", "password": "pw-67890",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	var body errorBody
	decode(t, w, &body)
	if body.ErrorType != "USER_ALREADY_REGISTERED" {
		t.Errorf("errorType = %q", body.ErrorType)
	}

	var count int64
	gdb.Model(&models.User{}).Where("email = ?", "ada@example.com").Count(&count)
	if count != 1 {
		t.Errorf("user rows = %d, want 1", count)
	}
}

func TestLogin_FailuresIndistinguishable(t *testing.T) {
	router, _ := setupRouter(t)
	registerAndLogin(t, router, "ada@example.com")

	wrongPw := doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ada@example.com", "password": "not-it",
	})
	unknown := doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "nobody@example.com", "password": "pw-12345",
	})

	if wrongPw.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d/%d, want 401/401", wrongPw.Code, unknown.Code)
	}
	if wrongPw.Body.String() != unknown.Body.String() {
		t.Errorf("bodies differ: %s vs %s", wrongPw.Body.String(), unknown.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/issue/all", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/issue/all", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", w.Code)
	}
}

func TestIssueFlow(t *testing.T) {
	router, _ := setupRouter(t)
	token, userID := registerAndLogin(t, router, "ada@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/project", token, map[string]string{
		"shortName": "eng", "description": "Engineering",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d body %s", w.Code, w.Body.String())
	}
	var p struct {
		ID        int    `json:"id"`
		ShortName string `json:"shortName"`
	}
	decode(t, w, &p)
	if p.ShortName != "ENG" {
		t.Errorf("short name = %q, want ENG", p.ShortName)
	}

	w = doJSON(t, router, http.MethodPost, "/api/v1/issue", token, map[string]interface{}{
		"title": "first issue", "projectId": p.ID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create issue: status %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		ID       int    `json:"id"`
		Key      string `json:"key"`
		AuthorID int    `json:"authorId"`
		Status   string `json:"status"`
	}
	decode(t, w, &created)
	if created.Key != "ENG-1" {
		t.Errorf("key = %q, want ENG-1", created.Key)
	}
	// The token's subject fills in an absent author.
	if created.AuthorID != userID {
		t.Errorf("author = %d, want %d", created.AuthorID, userID)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/issue/key/ENG-1", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get by key: status %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/api/v1/issue/update-status", token, map[string]interface{}{
		"issueId": created.ID, "status": "TODO",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update status: status %d body %s", w.Code, w.Body.String())
	}
	var updated struct {
		Status string `json:"status"`
	}
	decode(t, w, &updated)
	if updated.Status != "TODO" {
		t.Errorf("status = %q, want TODO", updated.Status)
	}

	w = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/v1/issue/id/%d/activity", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("activity: status %d", w.Code)
	}
	var acts []struct {
		Type string `json:"type"`
	}
	decode(t, w, &acts)
	if len(acts) != 2 || acts[0].Type != "CREATED_ISSUE" || acts[1].Type != "UPDATED_STATUS" {
		t.Errorf("activities = %+v", acts)
	}

	w = doJSON(t, router, http.MethodDelete,
		fmt.Sprintf("/api/v1/issue/%d", created.ID), token, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	router, _ := setupRouter(t)
	token, _ := registerAndLogin(t, router, "ada@example.com")

	tests := []struct {
		name       string
		method     string
		path       string
		body       interface{}
		wantStatus int
		wantType   string
	}{
		{"unknown issue", http.MethodGet, "/api/v1/issue/id/9999", nil,
			http.StatusNotFound, "ISSUE_NOT_FOUND"},
		{"unknown project", http.MethodGet, "/api/v1/project/id/9999", nil,
			http.StatusNotFound, "PROJECT_NOT_FOUND"},
		{"unknown team", http.MethodGet, "/api/v1/team/id/9999", nil,
			http.StatusNotFound, "TEAM_NOT_FOUND"},
		{"bad id", http.MethodGet, "/api/v1/issue/id/abc", nil,
			http.StatusBadRequest, "BAD_REQUEST"},
		{"bad project data", http.MethodPost, "/api/v1/project",
			map[string]string{"shortName": "TOOLONGX", "description": "d"},
			http.StatusBadRequest, "INVALID_PROJECT_DATA"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, router, tc.method, tc.path, token, tc.body)
			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tc.wantStatus, w.Body.String())
			}
			var body errorBody
			decode(t, w, &body)
			if body.ErrorType != tc.wantType {
				t.Errorf("errorType = %q, want %q", body.ErrorType, tc.wantType)
			}
		})
	}
}

func TestRegenerateTokens(t *testing.T) {
	router, _ := setupRouter(t)
	registerAndLogin(t, router, "ada@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ada@example.com", "password": "pw-12345",
	})
	var pair struct {
		RefreshToken struct {
			Token string `json:"token"`
		} `json:"refreshToken"`
	}
	decode(t, w, &pair)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/regenerate-tokens", "", map[string]string{
		"refreshToken": pair.RefreshToken.Token,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("regenerate: status %d body %s", w.Code, w.Body.String())
	}

	// The presented token was rotated out; a replay is rejected.
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/regenerate-tokens", "", map[string]string{
		"refreshToken": pair.RefreshToken.Token,
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("replay: status = %d, want 401", w.Code)
	}
	var body errorBody
	decode(t, w, &body)
	if body.ErrorType != "TOKEN_REVOKED" {
		t.Errorf("errorType = %q, want TOKEN_REVOKED", body.ErrorType)
	}
}

func TestAdminGate(t *testing.T) {
	router, gdb := setupRouter(t)
	token, userID := registerAndLogin(t, router, "ada@example.com")

	w := doJSON(t, router, http.MethodPut, "/api/v1/admin/password", token, map[string]interface{}{
		"userId": userID, "newPassword": "changed-pw",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("plain user: status = %d, want 403", w.Code)
	}

	// Grant the admin role and log in again for a token carrying it.
	var adminRole models.Role
	if err := gdb.First(&adminRole, "name = ?", models.RoleAdmin).Error; err != nil {
		t.Fatalf("load admin role: %v", err)
	}
	if err := gdb.Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)",
		userID, adminRole.ID).Error; err != nil {
		t.Fatalf("grant role: %v", err)
	}
	w = doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ada@example.com", "password": "pw-12345",
	})
	var pair struct {
		AccessToken struct {
			Token string `json:"token"`
		} `json:"accessToken"`
	}
	decode(t, w, &pair)

	w = doJSON(t, router, http.MethodPut, "/api/v1/admin/password", pair.AccessToken.Token,
		map[string]interface{}{"userId": userID, "newPassword": "changed-pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("admin: status = %d body %s", w.Code, w.Body.String())
	}

	// The new password works, the old one no longer does.
	w = doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ada@example.com", "password": "changed-pw",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login with new password: status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email": "ada@example.com", "password": "pw-12345",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("login with old password: status = %d, want 401", w.Code)
	}
}

func TestUserByEmailAndUpdate(t *testing.T) {
	router, _ := setupRouter(t)
	token, userID := registerAndLogin(t, router, "ada@example.com")

	w := doJSON(t, router, http.MethodGet, "/api/v1/user/email/ada@example.com", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get by email: status = %d body %s", w.Code, w.Body.String())
	}
	var u struct {
		ID    int    `json:"id"`
		Email string `json:"email"`
	}
	decode(t, w, &u)
	if u.ID != userID {
		t.Errorf("id = %d, want %d", u.ID, userID)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/user/email/nobody@example.com", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown email: status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/v1/user/%d", userID), token,
		map[string]interface{}{
			"firstName": "Grace", "lastName": "Hopper",
			"email": "Grace@Example.com", "disabled": false,
		})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d body %s", w.Code, w.Body.String())
	}
	var updated struct {
		FirstName string `json:"firstName"`
		Email     string `json:"email"`
	}
	decode(t, w, &updated)
	if updated.FirstName != "Grace" {
		t.Errorf("firstName = %q, want Grace", updated.FirstName)
	}
	if updated.Email != "grace@example.com" {
		t.Errorf("email = %q, want grace@example.com", updated.Email)
	}

	// The new email resolves, the old one is gone.
	w = doJSON(t, router, http.MethodGet, "/api/v1/user/email/grace@example.com", token, nil)
	if w.Code != http.StatusOK {
		t.Errorf("get by new email: status = %d", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/user/email/ada@example.com", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get by old email: status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodPut, "/api/v1/user/9999", token,
		map[string]interface{}{"firstName": "Nobody"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update unknown user: status = %d, want 404", w.Code)
	}
}

func TestTeamMembersEndpoints(t *testing.T) {
	router, _ := setupRouter(t)
	token, userID := registerAndLogin(t, router, "ada@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/team", token,
		map[string]string{"name": "backend"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create team: status = %d body %s", w.Code, w.Body.String())
	}
	var tm struct {
		ID int `json:"id"`
	}
	decode(t, w, &tm)

	w = doJSON(t, router, http.MethodPut, "/api/v1/team/add-user", token,
		map[string]int{"teamId": tm.ID, "userId": userID})
	if w.Code != http.StatusOK {
		t.Fatalf("add user: status = %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/team/users/%d", tm.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("team users: status = %d body %s", w.Code, w.Body.String())
	}
	var members []struct {
		ID int `json:"id"`
	}
	decode(t, w, &members)
	if len(members) != 1 || members[0].ID != userID {
		t.Errorf("members = %+v, want the one added user", members)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/team/users/9999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown team: status = %d, want 404", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/team/name/backend", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("team by name: status = %d body %s", w.Code, w.Body.String())
	}
	var byName struct {
		ID int `json:"id"`
	}
	decode(t, w, &byName)
	if byName.ID != tm.ID {
		t.Errorf("team id = %d, want %d", byName.ID, tm.ID)
	}
}

func TestDeleteCommentsByIssue(t *testing.T) {
	router, _ := setupRouter(t)
	token, _ := registerAndLogin(t, router, "ada@example.com")

	w := doJSON(t, router, http.MethodPost, "/api/v1/project", token,
		map[string]string{"shortName": "ENG", "description": "engineering"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status = %d body %s", w.Code, w.Body.String())
	}
	var proj struct {
		ID int `json:"id"`
	}
	decode(t, w, &proj)

	w = doJSON(t, router, http.MethodPost, "/api/v1/issue", token,
		map[string]interface{}{"title": "Leaky abstraction", "projectId": proj.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create issue: status = %d body %s", w.Code, w.Body.String())
	}
	var created struct {
		ID int `json:"id"`
	}
	decode(t, w, &created)

	for _, content := range []string{"first", "second"} {
		w = doJSON(t, router, http.MethodPost, "/api/v1/comment", token,
			map[string]interface{}{"issueId": created.ID, "content": content})
		if w.Code != http.StatusCreated {
			t.Fatalf("create comment: status = %d body %s", w.Code, w.Body.String())
		}
	}

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/comment/issue/%d", created.ID), token, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete comments: status = %d body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/v1/comment/issue/%d", created.ID), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list comments: status = %d body %s", w.Code, w.Body.String())
	}
	var remaining []struct {
		ID int `json:"id"`
	}
	decode(t, w, &remaining)
	if len(remaining) != 0 {
		t.Errorf("remaining comments = %d, want 0", len(remaining))
	}
}
