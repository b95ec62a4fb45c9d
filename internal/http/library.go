package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/services"
)

type LibraryController struct {
	library *services.LibraryService
}

func NewLibraryController(library *services.LibraryService) *LibraryController {
	return &LibraryController{library: library}
}

type addToLibraryRequest struct {
	BookID uint `json:"bookId"`
}

func (lc *LibraryController) List(c *gin.Context) {
	items, err := lc.library.ListLibrary(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"books": items}, "")
}

func (lc *LibraryController) Add(c *gin.Context) {
	var req addToLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == 0 {
		respondFailure(c, http.StatusBadRequest, "bookId is required")
		return
	}

	entry, err := lc.library.AddToLibrary(c.Request.Context(), auth.GetUserID(c), req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, entry, "book added to library")
}

func (lc *LibraryController) Remove(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	if err := lc.library.RemoveFromLibrary(c.Request.Context(), auth.GetUserID(c), bookID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "book removed from library")
}

func (lc *LibraryController) Status(c *gin.Context) {
	bookID, ok := parseIDParam(c, "bookId")
	if !ok {
		return
	}

	in, err := lc.library.IsInLibrary(c.Request.Context(), auth.GetUserID(c), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"inLibrary": in}, "")
}
