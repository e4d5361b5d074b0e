package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karahan-cpu/martek-marina/internal/core/domain"
	"github.com/karahan-cpu/martek-marina/internal/repository"
	"github.com/karahan-cpu/martek-marina/internal/repository/memory"
	"github.com/karahan-cpu/martek-marina/internal/transport/http/middleware"
	"github.com/karahan-cpu/martek-marina/internal/usecase"
)

type stubPedestalRepo struct {
	pedestals map[string]domain.Pedestal
}

func (r *stubPedestalRepo) List(context.Context) ([]domain.Pedestal, error) {
	out := make([]domain.Pedestal, 0, len(r.pedestals))
	for _, p := range r.pedestals {
		out = append(out, p)
	}
	return out, nil
}

func (r *stubPedestalRepo) GetByID(_ context.Context, id string) (*domain.Pedestal, error) {
	if p, ok := r.pedestals[id]; ok {
		copy := p
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *stubPedestalRepo) GetByAccessCode(_ context.Context, code string) (*domain.Pedestal, error) {
	for _, p := range r.pedestals {
		if p.AccessCode == code {
			copy := p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubPedestalRepo) UpdateServices(_ context.Context, id string, update domain.ServiceUpdate) (*domain.Pedestal, error) {
	p, ok := r.pedestals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.WaterEnabled != nil {
		p.WaterEnabled = *update.WaterEnabled
	}
	if update.ElectricityEnabled != nil {
		p.ElectricityEnabled = *update.ElectricityEnabled
	}
	r.pedestals[id] = p
	copy := p
	return &copy, nil
}

type stubAttemptStore struct {
	mu      sync.Mutex
	records map[string]domain.VerificationAttempt
}

func newStubAttemptStore() *stubAttemptStore {
	return &stubAttemptStore{records: make(map[string]domain.VerificationAttempt)}
}

func (s *stubAttemptStore) key(userID, pedestalID string) string {
	return userID + "/" + pedestalID
}

func (s *stubAttemptStore) Get(_ context.Context, userID, pedestalID string) (*domain.VerificationAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[s.key(userID, pedestalID)]; ok {
		copy := rec
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubAttemptStore) Upsert(_ context.Context, attempt domain.VerificationAttempt) (*domain.VerificationAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.key(attempt.UserID, attempt.PedestalID)] = attempt
	copy := attempt
	return &copy, nil
}

func (s *stubAttemptStore) RecordFailure(_ context.Context, userID, pedestalID string, at time.Time, lockoutFor domain.LockoutFunc) (*domain.VerificationAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(userID, pedestalID)
	rec, ok := s.records[key]
	if !ok {
		rec = domain.VerificationAttempt{UserID: userID, PedestalID: pedestalID, FirstAttempt: at}
	}
	rec.TotalFailed++
	rec.LastAttempt = at
	until := at.Add(lockoutFor(rec.TotalFailed))
	rec.LockoutUntil = &until
	s.records[key] = rec
	copy := rec
	return &copy, nil
}

func (s *stubAttemptStore) Delete(_ context.Context, userID, pedestalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, s.key(userID, pedestalID))
	return nil
}

func (s *stubAttemptStore) seed(attempt domain.VerificationAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[s.key(attempt.UserID, attempt.PedestalID)] = attempt
}

type apiFixture struct {
	router   *gin.Engine
	repo     *stubPedestalRepo
	attempts *stubAttemptStore
	grants   *memory.GrantCache
}

func identityInjector(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set(middleware.UserIDKey, userID)
		}
		c.Next()
	}
}

func newAPIFixture(t *testing.T, userID string, now time.Time) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubPedestalRepo{pedestals: map[string]domain.Pedestal{
		"ped-1": {
			ID:          "ped-1",
			MarinaID:    "marina-1",
			BerthNumber: "A-12",
			Status:      domain.PedestalAvailable,
			AccessCode:  "482913",
		},
	}}
	attempts := newStubAttemptStore()
	grants := memory.NewGrantCache()

	access := usecase.NewAccessService(repo, attempts, grants, nil, nil).
		WithClock(func() time.Time { return now })
	control := usecase.NewControlService(repo, grants, nil, nil)
	pedestals := usecase.NewPedestalService(repo)

	router := gin.New()
	group := router.Group("/api/v1/pedestals", identityInjector(userID))
	pedestalHandler := NewPedestalHandler(pedestals, control)
	NewAccessHandler(access, nil).RegisterRoutes(group)
	pedestalHandler.RegisterRoutes(group)
	pedestalHandler.RegisterAdminRoutes(router.Group("/api/v1/admin/pedestals", identityInjector(userID)))

	return &apiFixture{router: router, repo: repo, attempts: attempts, grants: grants}
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v (body %q)", err, rr.Body.String())
	}
	return resp
}

func TestVerifyAccess_Success(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "user-1", now)

	rr := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/ped-1/verify-access", `{"accessCode":"482913"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp VerifyAccessResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Verified {
		t.Fatal("expected verified true")
	}
	if resp.Pedestal.ID != "ped-1" {
		t.Fatalf("pedestal id = %q", resp.Pedestal.ID)
	}

	// The stored code must never leak through the non-admin surface.
	if strings.Contains(rr.Body.String(), "482913") {
		t.Fatal("response leaked the stored access code")
	}

	granted, err := fx.grants.HasAccess(context.Background(), "user-1", "ped-1")
	if err != nil || !granted {
		t.Fatalf("expected grant, granted=%v err=%v", granted, err)
	}
}

func TestVerifyAccess_WrongCode(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "user-1", now)

	rr := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/ped-1/verify-access", `{"accessCode":"000000"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	resp := decodeError(t, rr)
	want := "Invalid access code. Your access is locked for 5 minute(s) due to repeated failed attempts."
	if resp.Error != want {
		t.Fatalf("error = %q, want %q", resp.Error, want)
	}
}

func TestVerifyAccess_LockedOut(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "user-1", now)

	until := now.Add(42 * time.Minute)
	fx.attempts.seed(domain.VerificationAttempt{
		UserID:       "user-1",
		PedestalID:   "ped-1",
		TotalFailed:  4,
		LockoutUntil: &until,
	})

	rr := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/ped-1/verify-access", `{"accessCode":"482913"}`)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	resp := decodeError(t, rr)
	want := "Too many failed attempts. Please try again in 42 minute(s)."
	if resp.Error != want {
		t.Fatalf("error = %q, want %q", resp.Error, want)
	}
}

func TestVerifyAccess_MalformedCode(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "user-1", now)

	for _, body := range []string{`{"accessCode":"12345"}`, `{"accessCode":"12345a"}`, `{}`, `not json`} {
		rr := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/ped-1/verify-access", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rr.Code)
		}
	}
}

func TestVerifyAccess_UnknownPedestal(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "user-1", now)

	rr := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/missing/verify-access", `{"accessCode":"482913"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestVerifyAccess_Unauthenticated(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "", now)

	rr := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/ped-1/verify-access", `{"accessCode":"482913"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestVerifyByCode_GenericDenial(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "user-1", now)

	// The response for a non-matching code is constant, whatever the reason
	// it does not match.
	first := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/verify-by-code", `{"accessCode":"999999"}`)
	second := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/verify-by-code", `{"accessCode":"111111"}`)

	for _, rr := range []*httptest.ResponseRecorder{first, second} {
		if rr.Code != http.StatusTooManyRequests {
			t.Fatalf("status = %d, want 429", rr.Code)
		}
		resp := decodeError(t, rr)
		if resp.Error != "Invalid access code." {
			t.Fatalf("error = %q, want generic denial", resp.Error)
		}
	}
}

func TestVerifyByCode_Success(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	fx := newAPIFixture(t, "user-1", now)

	rr := doJSON(fx.router, http.MethodPost, "/api/v1/pedestals/verify-by-code", `{"accessCode":"482913"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp VerifyAccessResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Pedestal.ID != "ped-1" {
		t.Fatalf("pedestal id = %q", resp.Pedestal.ID)
	}
}
