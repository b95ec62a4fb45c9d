package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/config"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/storage/pdftest"
)

type cliFixture struct {
	cfg    *config.Config
	dbPath string
	out    *bytes.Buffer
}

func setupCLI(t *testing.T) *cliFixture {
	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Storage.Backend = config.StorageLocal
	cfg.Storage.Path = filepath.Join(dir, "uploads")
	cfg.Auth.BcryptCost = bcrypt.MinCost
	return &cliFixture{cfg: cfg, dbPath: filepath.Join(dir, "cli.db"), out: &bytes.Buffer{}}
}

func (f *cliFixture) seed(t *testing.T, args ...string) {
	t.Helper()
	cmd := NewSeedCommand(f.cfg)
	cmd.Out = f.out
	require.NoError(t, cmd.ParseFlags(append([]string{"-db", f.dbPath}, args...)))
	require.NoError(t, cmd.Run(context.Background()))
}

func (f *cliFixture) users(t *testing.T) []entities.User {
	t.Helper()
	db, err := openDatabase(f.cfg, f.dbPath)
	require.NoError(t, err)
	defer db.Close()

	var list []entities.User
	require.NoError(t, db.DB.Order("id").Find(&list).Error)
	return list
}

func TestSeedCommand(t *testing.T) {
	f := setupCLI(t)
	pdfPath := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(pdfPath, pdftest.Document(2), 0644))

	f.seed(t, "-admin-email", "Root@Example.com", "-admin-password", "hunter22", "-pdf", pdfPath)
	assert.Contains(t, f.out.String(), "Created admin root@example.com")
	assert.Contains(t, f.out.String(), "Seeded 5 books")

	list := f.users(t)
	require.Len(t, list, 1)
	assert.Equal(t, entities.RoleAdmin, list[0].Role)
	assert.NoError(t, auth.CheckPassword("hunter22", list[0].PasswordHash))

	db, err := openDatabase(f.cfg, f.dbPath)
	require.NoError(t, err)
	var books []entities.Book
	require.NoError(t, db.DB.Find(&books).Error)
	db.Close()
	require.Len(t, books, 5)
	for _, b := range books {
		assert.Equal(t, 2, b.PageCount)
		assert.FileExists(t, filepath.Join(f.cfg.Storage.Path, b.PDFPath))
	}

	t.Run("second run changes nothing", func(t *testing.T) {
		f.out.Reset()
		f.seed(t, "-admin-email", "root@example.com", "-pdf", pdfPath)
		assert.Contains(t, f.out.String(), "already exists")
		assert.Contains(t, f.out.String(), "skipping sample books")
		assert.Len(t, f.users(t), 1)
	})
}

func TestSeedCommand_WithoutPDF(t *testing.T) {
	f := setupCLI(t)
	f.seed(t)

	assert.Contains(t, f.out.String(), "skipping sample books")
	list := f.users(t)
	require.Len(t, list, 1)
	assert.Equal(t, "admin@example.com", list[0].Email)
}

func TestSetAdminCommand(t *testing.T) {
	f := setupCLI(t)
	f.seed(t, "-admin-email", "alice@example.com")

	run := func(args ...string) error {
		cmd := NewSetAdminCommand(f.cfg)
		cmd.Out = f.out
		if err := cmd.ParseFlags(append([]string{"-db", f.dbPath}, args...)); err != nil {
			return err
		}
		return cmd.Run(context.Background())
	}

	require.NoError(t, run("-email", "ALICE@example.com", "-revoke"))
	assert.Equal(t, entities.RoleUser, f.users(t)[0].Role)

	require.NoError(t, run("-email", "alice@example.com"))
	assert.Equal(t, entities.RoleAdmin, f.users(t)[0].Role)

	assert.Error(t, run("-email", "nobody@example.com"))
	assert.Error(t, run())
}

func TestListUsersCommand(t *testing.T) {
	f := setupCLI(t)

	cmd := NewListUsersCommand(f.cfg)
	cmd.Out = f.out
	require.NoError(t, cmd.ParseFlags([]string{"-db", f.dbPath}))
	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, f.out.String(), "No users yet")

	f.seed(t, "-admin-email", "root@example.com")
	f.out.Reset()
	require.NoError(t, cmd.Run(context.Background()))
	assert.Contains(t, f.out.String(), "root@example.com")
	assert.Contains(t, f.out.String(), "admin")
	assert.Contains(t, f.out.String(), "Total users: 1")
}
