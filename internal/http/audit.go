package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/auth"
	auditRepo "github.com/NicholasWachira-OSN/OSN-V2/internal/database/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
)

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{
		auditService: auditService,
	}
}

// GetAuditEvents returns the caller's paginated auth events as JSON
// GET /api/v2/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	userID := auth.GetUserID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	events, total, err := ac.auditService.ListEvents(auditRepo.Filter{
		UserID: userID,
		Action: c.Query("action"),
		Status: entities.AuditStatus(c.Query("status")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to load audit events",
		})
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
