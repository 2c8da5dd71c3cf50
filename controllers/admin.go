package controllers

import (
	"log"
	"net/http"
	"strconv"

	"nearlink/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminController serves the operational endpoints: audit trail access and
// database backups. These are deploy-internal routes, not part of the
// linking API.
type AdminController struct {
	db *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{db: db}
}

func (c *AdminController) GetAuditLogs(ctx *gin.Context) {
	eventType := ctx.Query("event_type")

	limit := 50
	if v := ctx.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	offset := 0
	if v := ctx.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	logs, total, err := utils.GetAuditLogs(eventType, limit, offset)
	if err != nil {
		log.Printf("Failed to load audit logs: %v", err)
		utils.InternalError(ctx, "Failed to load audit logs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (c *AdminController) CleanupAuditLogs(ctx *gin.Context) {
	days := 90
	if v := ctx.Query("days"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			days = parsed
		}
	}

	deleted, err := utils.CleanupOldAuditLogs(days)
	if err != nil {
		log.Printf("Audit log cleanup failed: %v", err)
		utils.InternalError(ctx, "Failed to clean up audit logs")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"deleted":       deleted,
		"days_retained": days,
	})
}

func (c *AdminController) BackupDatabase(ctx *gin.Context) {
	result, err := utils.BackupDatabase(c.db, "")
	if err != nil {
		log.Printf("Database backup failed: %v", err)
		utils.InternalError(ctx, "Failed to create backup")
		return
	}

	pruned, err := utils.CleanupOldBackups("", 5)
	if err != nil {
		log.Printf("Backup retention cleanup failed: %v", err)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"backup_path": result.BackupPath,
		"size":        result.Size,
		"created_at":  result.CreatedAt,
		"pruned":      pruned,
	})
}

func (c *AdminController) ListBackups(ctx *gin.Context) {
	backups, err := utils.ListBackups("")
	if err != nil {
		log.Printf("Failed to list backups: %v", err)
		utils.InternalError(ctx, "Failed to list backups")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"backups": backups,
		"count":   len(backups),
	})
}
