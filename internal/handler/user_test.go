package handler_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/swahilipot/room-booking/internal/handler"
	"github.com/swahilipot/room-booking/internal/repository"
)

// unreachableDB opens a handle whose queries fail with a connection
// error, letting handler tests tell a database failure apart from a
// missing row without a live server.
func unreachableDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("mysql", "nobody@tcp(127.0.0.1:1)/rooms")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func userGetCtx(t *testing.T, id string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/users/"+id, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/users/:id")
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

// A database failure while loading a user must surface as a server
// error, not get mistaken for a missing row.
func TestUserGetDatabaseErrorIsNot404(t *testing.T) {
	h := handler.NewUserHandler(&repository.UserRepo{DB: unreachableDB(t)})

	c, rec := userGetCtx(t, "7")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestUserGetRejectsBadID(t *testing.T) {
	h := handler.NewUserHandler(&repository.UserRepo{DB: unreachableDB(t)})

	c, rec := userGetCtx(t, "abc")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
