package http

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshelf/internal/services"
)

func TestLibraryController_Flow(t *testing.T) {
	s := setupServer(t)
	token, _ := s.signup(t, "alice@example.com")
	book := s.uploadBook(t, token, "Saved")
	statusPath := fmt.Sprintf("/api/library/%d/status", book.ID)

	w := s.do(t, http.MethodGet, "/api/library", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/library", map[string]any{"bookId": book.ID}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/library", map[string]any{"bookId": book.ID}, token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "book already in library", decodeEnvelope(t, w).Message)

	w = s.do(t, http.MethodPost, "/api/library", map[string]any{"bookId": 4242}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/library", map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var status struct {
		InLibrary bool `json:"inLibrary"`
	}
	decodeData(t, s.do(t, http.MethodGet, statusPath, nil, token), &status)
	assert.True(t, status.InLibrary)

	var listing struct {
		Books []services.LibraryItem `json:"books"`
	}
	decodeData(t, s.do(t, http.MethodGet, "/api/library", nil, token), &listing)
	require.Len(t, listing.Books, 1)
	assert.Equal(t, book.ID, listing.Books[0].ID)
	assert.False(t, listing.Books[0].AddedAt.IsZero())

	for i := 0; i < 2; i++ {
		w = s.do(t, http.MethodDelete, fmt.Sprintf("/api/library/%d", book.ID), nil, token)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	decodeData(t, s.do(t, http.MethodGet, statusPath, nil, token), &status)
	assert.False(t, status.InLibrary)
}
