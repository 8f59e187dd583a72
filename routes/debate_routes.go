package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/pgadwala09/VocabPro-sub001/controllers"
)

// DebateRoutes registers the turn-engine facade. The debate client carries
// its own session; per-route auth is the session layer's concern, not the
// engine's.
func DebateRoutes(r *gin.Engine, dc *controllers.DebateController) {
	debate := r.Group("/debate")
	{
		debate.POST("/initialize", dc.Initialize)
		debate.GET("/:id/state", dc.GetState)
		debate.GET("/:id/stats", dc.GetStats)
		debate.POST("/:id/start-speaking", dc.StartSpeaking)
		debate.POST("/:id/complete-turn", dc.CompleteTurn)
		debate.GET("/:id/can-speak/:userId", dc.CanUserSpeak)
		debate.GET("/:id/ai-can-speak", dc.CanAISpeak)
		debate.POST("/:id/ai-speak", dc.AISpeak)
		debate.POST("/:id/pause", dc.Pause)
		debate.POST("/:id/resume", dc.Resume)
		debate.POST("/:id/end", dc.End)
		debate.POST("/:id/sweep", dc.Sweep)
	}
}
