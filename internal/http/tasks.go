package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/scheduler"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/tasks"
)

// TasksController exposes the maintenance queue on the debug surface.
type TasksController struct {
	client      *tasks.Client
	maintenance *scheduler.MaintenanceScheduler
}

// NewTasksController creates a new TasksController.
func NewTasksController(client *tasks.Client, maintenance *scheduler.MaintenanceScheduler) *TasksController {
	return &TasksController{client: client, maintenance: maintenance}
}

// GetTaskStatus handles GET /debug/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": tasks.StatusName(status),
	})
}

// RunMaintenance handles POST /debug/maintenance
// Enqueues the maintenance tasks immediately instead of waiting for the schedule.
func (tc *TasksController) RunMaintenance(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	ids, err := tc.maintenance.RunNow(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	response := gin.H{"task_ids": ids, "message": "maintenance enqueued"}
	if next := tc.maintenance.GetNextRunTime(); next != nil {
		response["next_run"] = next.Format(time.RFC3339)
	}
	c.JSON(http.StatusAccepted, response)
}
