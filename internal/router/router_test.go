package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swati9798/Vehicle-Parking/internal/config"
	"github.com/Swati9798/Vehicle-Parking/internal/handler"
	"github.com/Swati9798/Vehicle-Parking/internal/jobs"
	"github.com/Swati9798/Vehicle-Parking/internal/mail"
	"github.com/Swati9798/Vehicle-Parking/internal/middleware"
	"github.com/Swati9798/Vehicle-Parking/internal/model"
	"github.com/Swati9798/Vehicle-Parking/internal/repository"
	"github.com/Swati9798/Vehicle-Parking/internal/service"
	"github.com/Swati9798/Vehicle-Parking/internal/utils"
)

const testSecret = "router-secret"

type fakeUsers map[uint64]model.User

func (f fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f fakeUsers) ListByRole(_ context.Context, role string, _ bool) ([]model.User, error) {
	out := []model.User{}
	for _, u := range f {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

type noReservations struct{}

func (noReservations) UsersWithActive(context.Context) (map[uint64]bool, error) {
	return map[uint64]bool{}, nil
}

func (noReservations) ListViews(context.Context, repository.ViewFilter, time.Time) ([]model.ReservationView, error) {
	return nil, nil
}

type noReports struct{}

func (noReports) MonthlyReport(context.Context, uint64, time.Time) (*service.MonthlyReport, error) {
	return &service.MonthlyReport{}, nil
}

type testServer struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	status *jobs.MemoryStatusStore
	mailer *mail.LogSender
	dir    string
}

var accounts = fakeUsers{
	1: {ID: 1, Username: "admin", Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true},
	7: {ID: 7, Username: "ravi", Email: "ravi@example.com", Role: model.RoleUser, IsActive: true},
	8: {ID: 8, Username: "meera", Email: "meera@example.com", Role: model.RoleUser, IsActive: true},
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	dir := t.TempDir()
	status := jobs.NewMemoryStatusStore(time.Hour)
	sender := mail.NewLogSender()
	runner := jobs.NewRunner(accounts, noReservations{}, noReports{}, sender, dir, "http://parking.test")
	dispatcher := jobs.NewDispatcher(nil, status, runner)

	cfg := config.Config{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 1, BcryptCost: 4}
	users := repository.NewUserRepo(db)
	lotRepo := repository.NewLotRepo(db)
	spotRepo := repository.NewSpotRepo(db)
	revoked := repository.NewMemoryRevocationStore()
	cache := middleware.NewResponseCache(config.CacheConfig{}, nil)

	lots := service.NewLotService(db, lotRepo, spotRepo)
	reservations := service.NewReservationService(db, lotRepo, spotRepo, repository.NewReservationRepo(db))
	analytics := service.NewAnalyticsService(repository.NewAnalyticsRepo(db), repository.NewReservationRepo(db))

	e := New(Deps{
		JWTSecret: testSecret,
		Users:     accounts,
		Revoked:   revoked,
		Cache:     cache,

		Auth:         handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), revoked),
		Health:       &handler.HealthHandler{DB: db},
		Lots:         handler.NewLotHandler(lots),
		Reservations: handler.NewReservationHandler(reservations),
		Analytics:    handler.NewAnalyticsHandler(analytics, users),
		Search:       handler.NewSearchHandler(service.NewSearchService(repository.NewSearchRepo(db), lotRepo)),
		Tasks:        handler.NewTaskHandler(dispatcher, dir),
		CacheAdmin:   &handler.CacheHandler{Cache: cache},
	})
	return &testServer{e: e, mock: mock, status: status, mailer: sender, dir: dir}
}

func token(t *testing.T, userID uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(testSecret, userID, accounts[userID].Role, 15)
	require.NoError(t, err)
	return tok.Token
}

func (s *testServer) do(method, path, body, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if tok != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdminRoutesRejectRegularUsers(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, 7)

	routes := []struct{ method, path, body string }{
		{http.MethodPost, "/api/admin/parking-lots", `{"prime_location_name":"X","address":"Y","pin_code":"1","price_per_hour":5,"number_of_spots":2}`},
		{http.MethodPut, "/api/admin/parking-lots/1", `{"number_of_spots":0}`},
		{http.MethodDelete, "/api/admin/parking-lots/1", ""},
		{http.MethodGet, "/api/admin/dashboard", ""},
		{http.MethodGet, "/api/admin/users", ""},
		{http.MethodPost, "/api/admin/tasks/trigger-reminders", ""},
		{http.MethodPost, "/api/admin/cache/clear", ""},
	}
	for _, r := range routes {
		rec := s.do(r.method, r.path, r.body, tok)
		assert.Equal(t, http.StatusForbidden, rec.Code, r.path)
		assert.Equal(t, "Admin access required", decode(t, rec)["message"], r.path)
	}
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/parking-lots", "/api/reservations", "/api/auth/whoami", "/api/admin/dashboard"} {
		rec := s.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(42, 1))
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := s.do(http.MethodPost, "/api/auth/register", `{"username":"asha","email":"Asha@Example.com","password":"pw123456"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Registration successful", body["message"])
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["access_token"])
	assert.NotEmpty(t, data["refresh_token"])
	user := data["user"].(map[string]any)
	assert.Equal(t, float64(42), user["id"])
	assert.Equal(t, "asha@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRegisterDuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'asha' for key 'users.uq_users_username'"})

	rec := s.do(http.MethodPost, "/api/auth/register", `{"username":"asha","email":"a@example.com","password":"pw"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already exists", decode(t, rec)["message"])
}

func TestRegisterRequiresAllFields(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/auth/register", `{"username":"asha","password":"pw"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "All fields are required", decode(t, rec)["message"])
}

func userRow(t *testing.T, password string, active bool) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "display_name", "role", "is_active", "created_at", "updated_at"}).
		AddRow(7, "ravi", "ravi@example.com", hash, nil, "user", active, now, now)
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
			WithArgs("ravi").WillReturnRows(userRow(t, "secret", true))
		s.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := s.do(http.MethodPost, "/api/auth/login", `{"username":"ravi","password":"secret"}`, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "Login successful - Welcome user!", body["message"])

		// The issued token works against a protected route.
		access := body["data"].(map[string]any)["access_token"].(string)
		who := s.do(http.MethodGet, "/api/auth/whoami", "", access)
		require.Equal(t, http.StatusOK, who.Code)
		assert.Equal(t, "ravi", decode(t, who)["data"].(map[string]any)["username"])
	})

	t.Run("wrong password", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
			WillReturnRows(userRow(t, "secret", true))
		rec := s.do(http.MethodPost, "/api/auth/login", `{"username":"ravi","password":"nope"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid username or password", decode(t, rec)["message"])
	})

	t.Run("deactivated", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
			WillReturnRows(userRow(t, "secret", false))
		rec := s.do(http.MethodPost, "/api/auth/login", `{"username":"ravi","password":"secret"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		s := newTestServer(t)
		s.mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=?")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		rec := s.do(http.MethodPost, "/api/auth/login", `{"username":"ghost","password":"x"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, 7)

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/auth/whoami", "", tok).Code)

	rec := s.do(http.MethodPost, "/api/auth/logout", "", tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Logout successful", decode(t, rec)["message"])

	rec = s.do(http.MethodGet, "/api/auth/whoami", "", tok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token has been revoked", decode(t, rec)["message"])

	// A fresh token for the same account is unaffected.
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/auth/whoami", "", token(t, 7)).Code)
}

func TestUpdateProfileRejectsUnknownFields(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPut, "/api/auth/profile", `{"email":"x@example.com","role":"admin"}`, token(t, 7))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestCreateReservationRequiresLot(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/reservations", `{"vehicle_number":"KA01"}`, token(t, 7))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Parking lot ID is required", decode(t, rec)["message"])
}

func TestTriggerRemindersRunsInlineWithoutBroker(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/admin/tasks/trigger-reminders", "", token(t, 1))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "completed", body["status"])
	result := body["result"].(map[string]any)
	assert.Equal(t, float64(2), result["checked"])
	assert.Equal(t, float64(2), result["sent"])
	assert.Len(t, s.mailer.Sent(), 2)

	id := body["task_id"].(string)
	rec = s.do(http.MethodGet, "/api/admin/tasks/status/"+id, "", token(t, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "completed", decode(t, rec)["status"])

	rec = s.do(http.MethodGet, "/api/admin/tasks/status/nope", "", token(t, 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendMailValidation(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/admin/send-mail", `{"to":"a@example.com","subject":"hi"}`, token(t, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing to, subject, or body", decode(t, rec)["message"])

	rec = s.do(http.MethodPost, "/api/admin/test-email", `{}`, token(t, 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Recipient email is required", decode(t, rec)["message"])
}

func TestExportStatusIsPrivate(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.status.Put(context.Background(), jobs.Status{
		ID: "exp-1", Kind: jobs.KindExportCSV, UserID: 7, State: jobs.StateCompleted, UpdatedAt: time.Now().UTC(),
	}))

	rec := s.do(http.MethodGet, "/api/export/status/exp-1", "", token(t, 7))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "exp-1", decode(t, rec)["task_id"])

	rec = s.do(http.MethodGet, "/api/export/status/exp-1", "", token(t, 8))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportDownloadOnlyOwnFiles(t *testing.T) {
	s := newTestServer(t)
	name := "parking_history_7_20260510_120000_abcd1234.csv"
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, name), []byte("reservation_id\n1\n"), 0o644))

	rec := s.do(http.MethodGet, "/api/export/download/"+name, "", token(t, 7))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reservation_id\n1\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), name)

	rec = s.do(http.MethodGet, "/api/export/download/"+name, "", token(t, 8))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/export/download/parking_history_7_missing.csv", "", token(t, 7))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/export/download/..%2Fparking_history_7_x.csv", "", token(t, 7))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCSVInline(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/export/csv", "", token(t, 7))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	result := body["result"].(map[string]any)
	name := result["filename"].(string)
	assert.True(t, strings.HasPrefix(name, "parking_history_7_"))

	rec = s.do(http.MethodGet, "/api/export/download/"+name, "", token(t, 7))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCacheStatusWithoutRedis(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/api/admin/cache/status", "", token(t, 1))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, false, data["connected"])
}
