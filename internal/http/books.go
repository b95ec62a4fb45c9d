package http

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/metrics"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/utils"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

type BooksController struct {
	content        *services.ContentService
	uploadMaxBytes int64
}

func NewBooksController(content *services.ContentService, uploadMaxBytes int64) *BooksController {
	return &BooksController{content: content, uploadMaxBytes: uploadMaxBytes}
}

func (bc *BooksController) Create(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		respondError(c, auth.ErrAuthRequired)
		return
	}

	if bc.uploadMaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bc.uploadMaxBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			respondError(c, err)
			return
		}
		respondFailure(c, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if c.Request.MultipartForm != nil {
			_ = c.Request.MultipartForm.RemoveAll()
		}
	}()

	pdf, closePDF, err := formFile(c, "pdf")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "invalid pdf upload")
		return
	}
	defer closePDF()

	cover, closeCover, err := formFile(c, "cover")
	if err != nil {
		respondFailure(c, http.StatusBadRequest, "invalid cover upload")
		return
	}
	defer closeCover()

	book, err := bc.content.CreateBook(c.Request.Context(), services.CreateBookInput{
		UploaderID:  principal.UserID,
		Title:       c.PostForm("title"),
		Author:      c.PostForm("author"),
		Description: c.PostForm("description"),
		Category:    c.PostForm("category"),
		Tags:        c.PostForm("tags"),
		PDF:         pdf,
		Cover:       cover,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.BooksUploaded.Inc()
	respondCreated(c, book, "book uploaded")
}

// formFile opens an optional multipart file. A missing field yields a nil
// upload and no error.
func formFile(c *gin.Context, field string) (*services.FileUpload, func(), error) {
	noop := func() {}

	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, noop, nil
		}
		return nil, noop, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, noop, err
	}
	return uploadFrom(header, f), func() { _ = f.Close() }, nil
}

func uploadFrom(header *multipart.FileHeader, f multipart.File) *services.FileUpload {
	return &services.FileUpload{File: f, Filename: header.Filename, Size: header.Size}
}

func (bc *BooksController) List(c *gin.Context) {
	page, err := bc.content.ListBooks(c.Request.Context(), services.BookFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "limit"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page, "")
}

func (bc *BooksController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := bc.content.GetBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, book, "")
}

// File streams the PDF and counts the read.
func (bc *BooksController) File(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	file, err := bc.content.OpenBookFile(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Content.Close()

	if err := bc.content.IncrementViewCount(ctx, id); err != nil {
		log.WithError(err).WithField("book_id", id).Warn("Failed to increment view count")
	}

	metrics.BookDownloads.Inc()
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Content, map[string]string{
		"Content-Disposition": contentDisposition(file.Book.Title, ".pdf"),
	})
}

func (bc *BooksController) Cover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := bc.content.OpenCover(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Content.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, file.Content, map[string]string{
		"Cache-Control": "public, max-age=86400",
	})
}

func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	principal, _ := auth.PrincipalFrom(c)
	if err := bc.content.DeleteBook(c.Request.Context(), id, principal); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "book deleted")
}

func contentDisposition(title, ext string) string {
	return mime.FormatMediaType("inline", map[string]string{"filename": utils.DownloadFilename(title, ext)})
}
