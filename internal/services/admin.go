package services

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/database/books"
	"github.com/mrlokans/bookshelf/internal/database/library"
	"github.com/mrlokans/bookshelf/internal/database/users"
	"github.com/mrlokans/bookshelf/internal/entities"
)

const (
	DefaultTopUsers = 10
	MaxTopUsers     = 100
)

type DashboardTotals struct {
	TotalUsers        int64 `json:"totalUsers"`
	TotalBooks        int64 `json:"totalBooks"`
	TotalLibraryItems int64 `json:"totalLibraryItems"`
}

type Dashboard struct {
	Stats DashboardTotals `json:"stats"`
	Users []users.Stats   `json:"users"`
}

type AdminStatus struct {
	IsAdmin bool            `json:"isAdmin"`
	User    auth.PublicUser `json:"user"`
}

type RankedUser struct {
	Rank int `json:"rank"`
	users.UploaderRank
}

type AuditPage struct {
	Events     []entities.AuditEvent `json:"events"`
	Pagination PageInfo              `json:"pagination"`
}

// AdminService exposes privileged reporting. Each call reloads the caller
// so a revoked admin loses access before their token expires.
type AdminService struct {
	users    *users.Repository
	books    *books.Repository
	library  *library.Repository
	reviews  *ReviewService
	ratings  RatingsRecalculator
	auditLog AuditLogger
	events   AuditReader
}

// NewAdminService creates an admin service. ratings may be nil, in which
// case recalculation runs inline.
func NewAdminService(db *gorm.DB, reviews *ReviewService, ratings RatingsRecalculator, auditor AuditLogger, events AuditReader) *AdminService {
	if auditor == nil {
		auditor = noopAudit{}
	}
	if events == nil {
		events = noopAudit{}
	}
	return &AdminService{
		users:    users.NewRepository(db),
		books:    books.NewRepository(db),
		library:  library.NewRepository(db),
		reviews:  reviews,
		ratings:  ratings,
		auditLog: auditor,
		events:   events,
	}
}

func (s *AdminService) loadCaller(ctx context.Context, principal *auth.Principal) (*entities.User, error) {
	if principal == nil || principal.UserID == 0 {
		return nil, ErrPrincipalRequired
	}
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load caller: %w", err)
	}
	return user, nil
}

func (s *AdminService) requireAdmin(ctx context.Context, principal *auth.Principal) (*entities.User, error) {
	user, err := s.loadCaller(ctx, principal)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrAdminOnly
		}
		return nil, err
	}
	if !user.IsAdmin() {
		log.WithField("user_id", user.ID).Warn("Non-admin attempted admin access")
		return nil, ErrAdminOnly
	}
	return user, nil
}

func (s *AdminService) DashboardStats(ctx context.Context, principal *auth.Principal) (*Dashboard, error) {
	if _, err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}

	stats, err := s.users.ListWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	totalBooks, err := s.books.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}
	totalLibrary, err := s.library.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count library entries: %w", err)
	}
	if stats == nil {
		stats = []users.Stats{}
	}

	return &Dashboard{
		Stats: DashboardTotals{
			TotalUsers:        int64(len(stats)),
			TotalBooks:        totalBooks,
			TotalLibraryItems: totalLibrary,
		},
		Users: stats,
	}, nil
}

// ListAllBooks returns every book with the uploader's email, newest first.
func (s *AdminService) ListAllBooks(ctx context.Context, principal *auth.Principal) ([]entities.Book, error) {
	if _, err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}

	list, err := s.books.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	for i := range list {
		list[i].AttachUploader(true)
	}
	if list == nil {
		list = []entities.Book{}
	}
	return list, nil
}

// CheckAdminStatus tells any authenticated caller whether they are an admin.
func (s *AdminService) CheckAdminStatus(ctx context.Context, principal *auth.Principal) (*AdminStatus, error) {
	user, err := s.loadCaller(ctx, principal)
	if err != nil {
		return nil, err
	}
	return &AdminStatus{IsAdmin: user.IsAdmin(), User: auth.NewPublicUser(user)}, nil
}

// TopUsers ranks users by uploaded book count. Ties are ordered by user id.
func (s *AdminService) TopUsers(ctx context.Context, principal *auth.Principal, limit int) ([]RankedUser, error) {
	if _, err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}

	if limit < 1 {
		limit = DefaultTopUsers
	}
	if limit > MaxTopUsers {
		limit = MaxTopUsers
	}

	rows, err := s.users.TopUploaders(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("rank uploaders: %w", err)
	}

	ranked := make([]RankedUser, len(rows))
	for i, row := range rows {
		ranked[i] = RankedUser{Rank: i + 1, UploaderRank: row}
	}
	return ranked, nil
}

func (s *AdminService) AuditEvents(ctx context.Context, principal *auth.Principal, eventType entities.AuditEventType, page, pageSize int) (*AuditPage, error) {
	if _, err := s.requireAdmin(ctx, principal); err != nil {
		return nil, err
	}

	page, pageSize = normalizePage(page, pageSize)
	events, total, err := s.events.GetEvents(ctx, eventType, pageSize, pageOffset(page, pageSize))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}

	return &AuditPage{
		Events: events,
		Pagination: PageInfo{
			Page:       page,
			Limit:      pageSize,
			Total:      total,
			TotalPages: totalPages(total, pageSize),
		},
	}, nil
}

// RecalculateRatings schedules a full aggregate recomputation. It reports
// queued=true when handed to the task queue and false when it ran inline.
func (s *AdminService) RecalculateRatings(ctx context.Context, principal *auth.Principal) (bool, *RatingsReport, error) {
	caller, err := s.requireAdmin(ctx, principal)
	if err != nil {
		return false, nil, err
	}

	if s.ratings != nil {
		if err := s.ratings.EnqueueRatingsRecalculation(ctx, caller.ID); err != nil {
			return false, nil, fmt.Errorf("enqueue ratings recalculation: %w", err)
		}
		s.auditLog.LogAdmin(caller.ID, "ratings_recalculate", "Queued rating recalculation")
		return true, nil, nil
	}

	report, err := s.reviews.RecalculateRatings(ctx)
	s.auditLog.LogRatings(caller.ID, fmt.Sprintf("Recalculated %d books, %d failed", report.BooksProcessed, report.BooksFailed), err)
	if err != nil {
		return false, nil, fmt.Errorf("recalculate ratings: %w", err)
	}
	return false, &report, nil
}

// SetRole promotes or demotes a user by email. It is used by the CLI and
// does not check the caller.
func (s *AdminService) SetRole(ctx context.Context, email string, role entities.Role) (*entities.User, error) {
	user, err := s.users.SetRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set role: %w", err)
	}
	s.auditLog.LogAdmin(user.ID, "set_role", fmt.Sprintf("Role of %s set to %s", user.Email, role))
	return user, nil
}

// ListUsers returns every user for the CLI listing.
func (s *AdminService) ListUsers(ctx context.Context) ([]entities.User, error) {
	return s.users.List(ctx)
}
