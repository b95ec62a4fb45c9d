package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/database"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/services"
	"github.com/mrlokans/bookshelf/internal/storage"
	"github.com/mrlokans/bookshelf/internal/storage/pdftest"
)

type testServer struct {
	router *gin.Engine
	db     *database.Database
	store  *storage.LocalStore
}

// testEnvelope mirrors Envelope with the payload left undecoded.
type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
}

func setupServer(t *testing.T, configure ...func(*RouterConfig)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDatabase(config.Database{
		Type: config.DatabaseSQLite,
		Path: filepath.Join(t.TempDir(), "http.db"),
	}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tokens, err := auth.NewTokenManager("test-secret", 7*24*time.Hour)
	require.NoError(t, err)
	authService := auth.NewService(db.DB, tokens, config.Auth{BcryptCost: bcrypt.MinCost})

	reviews := services.NewReviewService(db.DB)
	cfg := RouterConfig{
		Database:       db,
		Content:        services.NewContentService(db.DB, store, nil, nil),
		Library:        services.NewLibraryService(db.DB),
		Reviews:        reviews,
		Admin:          services.NewAdminService(db.DB, reviews, nil, nil, nil),
		AuthService:    authService,
		AuthMiddleware: auth.NewMiddleware(authService),
		UploadMaxBytes: 1 << 20,
		Version:        "test",
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	return &testServer{router: NewRouter(cfg), db: db, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, token string, fields map[string]string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, content := range files {
		part, err := mw.CreateFormFile(field, field+".bin")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/books", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup creates an account and returns its token and id.
func (s *testServer) signup(t *testing.T, email string) (string, uint) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":       email,
		"displayName": "Reader " + email[:1],
		"password":    "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var session auth.Session
	decodeData(t, w, &session)
	return session.Token, session.User.ID
}

func (s *testServer) promote(t *testing.T, userID uint) {
	t.Helper()
	require.NoError(t, s.db.DB.Model(&entities.User{}).Where("id = ?", userID).Update("role", entities.RoleAdmin).Error)
}

// uploadBook creates a book through the API and returns it.
func (s *testServer) uploadBook(t *testing.T, token, title string) entities.Book {
	t.Helper()
	w := s.upload(t, token, map[string]string{
		"title":    title,
		"author":   "Some Author",
		"category": "fiction",
	}, map[string][]byte{"pdf": pdftest.Document(3)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var book entities.Book
	decodeData(t, w, &book)
	return book
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	env := decodeEnvelope(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}
