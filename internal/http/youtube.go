package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/youtube"
)

// YouTubeController proxies live-status lookups so the API key stays server side.
type YouTubeController struct {
	client *youtube.Client
}

func NewYouTubeController(client *youtube.Client) *YouTubeController {
	return &YouTubeController{client: client}
}

// LiveDetails handles GET /api/v2/youtube/video/:id/live-details.
// Upstream failures are reported in the body; the status is always 200.
func (yc *YouTubeController) LiveDetails(c *gin.Context) {
	details := yc.client.LiveDetails(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, details)
}
