package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mock-interview/internal/types"
)

func seedInterviews(f *fixture) {
	base := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		f.store.PutInterview(types.Interview{
			ID:        fmt.Sprintf("other-%d", i),
			Role:      "Backend Developer",
			UserID:    "user-2",
			Finalized: i != 3,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
}

func TestGetInterview(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/interviews/iv-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	iv := decodeBody[types.Interview](t, w)
	assert.Equal(t, "Frontend Developer", iv.Role)

	w = f.do(t, http.MethodGet, "/api/interviews/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"interview not found: missing"}`, w.Body.String())
}

func TestListUserInterviews(t *testing.T) {
	f := newFixture(t)
	seedInterviews(f)

	w := f.do(t, http.MethodGet, "/api/users/user-2/interviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]types.Interview](t, w)
	require.Len(t, list, 4)
	assert.Equal(t, "other-3", list[0].ID)

	w = f.do(t, http.MethodGet, "/api/users/nobody/interviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestLatestInterviews(t *testing.T) {
	f := newFixture(t)
	seedInterviews(f)

	w := f.do(t, http.MethodGet, "/api/interviews/latest?userId=user-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]types.Interview](t, w)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"other-2", "other-1", "other-0"}, []string{list[0].ID, list[1].ID, list[2].ID})

	w = f.do(t, http.MethodGet, "/api/interviews/latest?userId=user-1&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]types.Interview](t, w), 1)
}

func TestLatestInterviews_BadInput(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/interviews/latest", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, limit := range []string{"0", "-3", "ten"} {
		w = f.do(t, http.MethodGet, "/api/interviews/latest?userId=user-1&limit="+limit, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, limit)
	}
}
