package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"fiscalflow/auth"
	"fiscalflow/client"
	"fiscalflow/docstore"
	"fiscalflow/extraction"
	"fiscalflow/logger"
	"fiscalflow/obligation"
	"fiscalflow/reconcile"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	authService := auth.NewService(newFakeOperatorRepo(), "test-secret", time.Hour)
	reconcileService := reconcile.NewService(
		&emptyActivityRepo{},
		&emptySchemaRepo{},
		&emptyClientReader{},
		&emptyDocStore{},
		logger.NewNop(),
	)

	return NewRouter(RouterConfig{
		AuthService:      authService,
		ReconcileService: reconcileService,
		Log:              logger.NewNop(),
	})
}

func registerAndLogin(t *testing.T, router *gin.Engine) string {
	t.Helper()

	body := `{"email":"maria@firm.example","password":"strongpassword","full_name":"Maria Operator"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	loginBody := `{"email":"maria@firm.example","password":"strongpassword"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(loginBody)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("login: empty token")
	}
	return payload.Token
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestStartRun_RequiresToken(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/runs", strings.NewReader(`{}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestStartRun_EmptyScopeIsOK(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconciliation/runs", strings.NewReader(`{"obligation_type_id":"das"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary reconcile.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Total != 0 || summary.Successes != 0 || summary.Failures != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}
}

func TestReconcileActivity_NotFound(t *testing.T) {
	router := newTestRouter(t)
	token := registerAndLogin(t, router)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/activities/missing/reconcile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	body := `{"email":"nobody@firm.example","password":"whatever"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

type fakeOperatorRepo struct {
	byEmail map[string]auth.Operator
	byID    map[string]auth.Operator
	nextID  int
}

func newFakeOperatorRepo() *fakeOperatorRepo {
	return &fakeOperatorRepo{
		byEmail: make(map[string]auth.Operator),
		byID:    make(map[string]auth.Operator),
		nextID:  1,
	}
}

func (f *fakeOperatorRepo) CreateOperator(_ context.Context, params auth.CreateOperatorParams) (auth.Operator, error) {
	if _, exists := f.byEmail[params.Email]; exists {
		return auth.Operator{}, auth.ErrDuplicateEmail
	}
	op := auth.Operator{
		ID:           fmt.Sprintf("operator-%d", f.nextID),
		Email:        params.Email,
		FullName:     params.FullName,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
	}
	f.nextID++
	f.byEmail[op.Email] = op
	f.byID[op.ID] = op
	return op, nil
}

func (f *fakeOperatorRepo) GetOperatorByEmail(_ context.Context, email string) (auth.Operator, error) {
	op, ok := f.byEmail[email]
	if !ok {
		return auth.Operator{}, auth.ErrOperatorNotFound
	}
	return op, nil
}

func (f *fakeOperatorRepo) GetOperatorByID(_ context.Context, id string) (auth.Operator, error) {
	op, ok := f.byID[id]
	if !ok {
		return auth.Operator{}, auth.ErrOperatorNotFound
	}
	return op, nil
}

type emptyActivityRepo struct{}

func (emptyActivityRepo) ListPendingActivities(context.Context, obligation.Filter) ([]obligation.Activity, error) {
	return nil, nil
}

func (emptyActivityRepo) ListResumable(context.Context, obligation.Filter) ([]obligation.Activity, error) {
	return nil, nil
}

func (emptyActivityRepo) GetActivity(context.Context, string) (obligation.Activity, error) {
	return obligation.Activity{}, obligation.ErrActivityNotFound
}

func (emptyActivityRepo) AttachContent(context.Context, string, []byte, string) error {
	return nil
}

func (emptyActivityRepo) MarkCompleted(context.Context, string, time.Time) error {
	return nil
}

func (emptyActivityRepo) AppendAuditNote(context.Context, string, string, string, time.Time) error {
	return nil
}

type emptySchemaRepo struct{}

func (emptySchemaRepo) GetByID(context.Context, string) (extraction.Schema, error) {
	return extraction.Schema{}, extraction.ErrSchemaNotFound
}

type emptyClientReader struct{}

func (emptyClientReader) GetByID(context.Context, string) (client.Profile, error) {
	return client.Profile{}, client.ErrNotFound
}

func (emptyClientReader) GetByTaxID(context.Context, string) (client.Profile, error) {
	return client.Profile{}, client.ErrNotFound
}

type emptyDocStore struct{}

func (emptyDocStore) ListDocuments(context.Context, string, docstore.ListFilters) ([]docstore.DocumentMeta, error) {
	return nil, nil
}

func (emptyDocStore) FetchContent(context.Context, string, string) ([]byte, error) {
	return nil, docstore.ErrNotFound
}
