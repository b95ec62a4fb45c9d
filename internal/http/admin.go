package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshelf/internal/auth"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/services"
)

// AdminController serves the admin panel. Authorization happens in the
// service, which reloads the caller's role on every request.
type AdminController struct {
	admin *services.AdminService
}

func NewAdminController(admin *services.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

func (ac *AdminController) Check(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c)
	status, err := ac.admin.CheckAdminStatus(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, status, "")
}

func (ac *AdminController) Dashboard(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c)
	dashboard, err := ac.admin.DashboardStats(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, dashboard, "")
}

func (ac *AdminController) Books(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c)
	books, err := ac.admin.ListAllBooks(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"books": books}, "")
}

func (ac *AdminController) TopUsers(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c)
	ranked, err := ac.admin.TopUsers(c.Request.Context(), principal, queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"topUsers": ranked}, "")
}

func (ac *AdminController) Audit(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c)
	page, err := ac.admin.AuditEvents(c.Request.Context(), principal,
		entities.AuditEventType(c.Query("type")), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, page, "")
}

// RecalculateRatings answers 202 when the work was queued and 200 with the
// report when it ran inline.
func (ac *AdminController) RecalculateRatings(c *gin.Context) {
	principal, _ := auth.PrincipalFrom(c)
	queued, report, err := ac.admin.RecalculateRatings(c.Request.Context(), principal)
	if err != nil {
		respondError(c, err)
		return
	}
	if queued {
		c.JSON(http.StatusAccepted, Envelope{Success: true, Message: "ratings recalculation queued"})
		return
	}
	respondOK(c, report, "ratings recalculated")
}
