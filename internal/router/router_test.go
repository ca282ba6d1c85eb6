package router

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swahilipot/room-booking/internal/handler"
	"github.com/swahilipot/room-booking/internal/repository"
)

// brokenDB opens a handle to an unreachable server.  Queries fail with
// a connection error, which is enough to tell an auth challenge (401)
// apart from a handler that actually ran (500).
func brokenDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("mysql", "nobody@tcp(127.0.0.1:1)/rooms")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRoomCatalogReadsArePublic(t *testing.T) {
	e := echo.New()
	RegisterRooms(e, handler.NewRoomHandler(repository.NewRoomRepo(brokenDB(t))), "secret")

	// Catalog reads carry no token and still reach the handler.
	for _, target := range []string{"/v1/rooms", "/v1/rooms/1"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, target)
	}

	// Catalog mutations are still challenged.
	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/v1/rooms"},
		{http.MethodPatch, "/v1/rooms/1/status"},
		{http.MethodDelete, "/v1/rooms/1"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.target)
	}
}

func TestBookingRoutesRequireAuth(t *testing.T) {
	e := echo.New()
	RegisterBookings(e, handler.NewBookingHandler(nil), "secret")

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/v1/bookings"},
		{http.MethodGet, "/v1/bookings"},
		{http.MethodGet, "/v1/bookings/user/1"},
		{http.MethodPatch, "/v1/bookings/1/status"},
	} {
		req := httptest.NewRequest(tc.method, tc.target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.target)
	}
}
