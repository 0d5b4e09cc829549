package handler_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/cache"
	"github.com/iliyamo/contacts-api/internal/handler"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/router"
	"github.com/iliyamo/contacts-api/internal/utils"
)

const testSecret = "unit-test-secret"

var contactCols = []string{"id", "user_id", "name", "surname", "email", "phonenumber", "birthday", "description", "created_at", "updated_at"}

// newContactServer wires the contact routes against a mock database with a
// disabled Redis cache, exactly as production does minus the integrations.
func newContactServer(t *testing.T) (*echo.Echo, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	users := repository.NewUserRepo(db)
	contacts := repository.NewContactRepo(db)
	userCache := cache.NewUserCache(nil)

	e := echo.New()
	e.Validator = handler.NewValidator()
	router.RegisterProtected(e, handler.NewContactHandler(contacts), handler.NewUserHandler(users, userCache, nil),
		testSecret, users, userCache)
	return e, db, mock
}

// expectUserLookup satisfies the JWT middleware's user resolution for each
// authenticated request (the cache is disabled in tests).
func expectUserLookup(mock sqlmock.Sqlmock, id uint64, email string) {
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \?`).
		WithArgs(email).
		WillReturnRows(mock.NewRows([]string{"id", "username", "email", "password_hash", "confirmed", "avatar", "refresh_token", "created_at", "updated_at"}).
			AddRow(id, "alice", email, "hash", true, nil, nil, now, now))
}

func doRequest(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	access, err := utils.NewAccessToken(testSecret, "alice@x.com", 15)
	require.NoError(t, err)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+access.Value)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListRequiresToken(t *testing.T) {
	e, db, _ := newContactServer(t)
	defer db.Close()

	req := httptest.NewRequest(http.MethodGet, "/contacts/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListIsOwnerScoped(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	now := time.Now().UTC()
	rows := mock.NewRows(contactCols).
		AddRow(1, 7, "Alice", "Smith", "alice.friend@x.com", "+380501234567",
			time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC), nil, now, now)
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE user_id = \? AND \(name = \?\) ORDER BY id LIMIT \?`).
		WithArgs(uint64(7), "Alice", 10).
		WillReturnRows(rows)

	rec := doRequest(t, e, http.MethodGet, "/contacts/?name=Alice", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInvalidLimit(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	rec := doRequest(t, e, http.MethodGet, "/contacts/?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateContact(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	mock.ExpectExec(`INSERT INTO contacts`).
		WithArgs(uint64(7), "Bob", "Jones", "bob@x.com", "+380501234567", sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM contacts WHERE id = \?`).
		WithArgs(uint64(42)).
		WillReturnRows(mock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	body := `{"name":"Bob","surname":"Jones","email":"bob@x.com","phonenumber":"+380501234567","birthday":"1985-06-02"}`
	rec := doRequest(t, e, http.MethodPost, "/contacts/", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var got model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(42), got.ID)
	assert.Equal(t, "1985-06-02", got.Birthday.Format("2006-01-02"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateContactRejectsBadPhone(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	// Validation fails before the repository is reached: no contact
	// statements are expected beyond the middleware's user lookup.
	expectUserLookup(mock, 7, "alice@x.com")

	body := `{"name":"Bob","surname":"Jones","email":"bob@x.com","phonenumber":"0501234567","birthday":"1985-06-02"}`
	rec := doRequest(t, e, http.MethodPost, "/contacts/", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetContactAbsentIs404(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(mock.NewRows(contactCols))

	rec := doRequest(t, e, http.MethodGet, "/contacts/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateContactAbsentIs404(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(mock.NewRows(contactCols))

	body := `{"name":"Bob","surname":"Jones","email":"bob@x.com","phonenumber":"+380501234567","birthday":"1985-06-02","description":"pal"}`
	rec := doRequest(t, e, http.MethodPut, "/contacts/5", body)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteContactReturnsSnapshot(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE id = \? AND user_id = \?`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(mock.NewRows(contactCols).
			AddRow(5, 7, "Bob", "Jones", "bob@x.com", "+380501234567",
				time.Date(1985, 6, 2, 0, 0, 0, 0, time.UTC), nil, now, now))
	mock.ExpectExec(`DELETE FROM contacts`).
		WithArgs(uint64(5), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doRequest(t, e, http.MethodDelete, "/contacts/5", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, uint64(5), got.ID)
	assert.Equal(t, "Bob", got.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBirthdaysEndpoint(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	now := time.Now().UTC()
	// One birthday tomorrow, one far away: only the first is returned.
	tomorrow := now.AddDate(0, 0, 1)
	farAway := now.AddDate(0, 0, 60)
	rows := mock.NewRows(contactCols).
		AddRow(1, 7, "Soon", "A", "a@x.com", "+380501234567",
			time.Date(1990, tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC), nil, now, now).
		AddRow(2, 7, "Later", "B", "b@x.com", "+380501234567",
			time.Date(1990, farAway.Month(), farAway.Day(), 0, 0, 0, 0, time.UTC), nil, now, now)
	mock.ExpectQuery(`SELECT (.+) FROM contacts WHERE user_id = \? ORDER BY id`).
		WithArgs(uint64(7)).
		WillReturnRows(rows)

	rec := doRequest(t, e, http.MethodGet, "/contacts/birthdays/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []model.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Soon", got[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMeEndpoint(t *testing.T) {
	e, db, mock := newContactServer(t)
	defer db.Close()

	expectUserLookup(mock, 7, "alice@x.com")
	rec := doRequest(t, e, http.MethodGet, "/users/me/", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "alice@x.com", got["email"])
	_, hasToken := got["refresh_token"]
	assert.False(t, hasToken)
}
