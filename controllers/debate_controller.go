package controllers

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pgadwala09/VocabPro-sub001/models"
	"github.com/pgadwala09/VocabPro-sub001/services"
)

// DebateController exposes the debate session facade over HTTP. All turn
// state lives in the store; handlers carry nothing between requests.
type DebateController struct {
	session *services.DebateSession
	engine  *services.TurnEngine
	sweeper *services.Sweeper
	media   *services.MediaService
}

func NewDebateController(session *services.DebateSession, engine *services.TurnEngine, sweeper *services.Sweeper) *DebateController {
	return &DebateController{
		session: session,
		engine:  engine,
		sweeper: sweeper,
		media:   services.NewMediaService(),
	}
}

func (dc *DebateController) Initialize(c *gin.Context) {
	var input struct {
		DebateID string `json:"debateId"`
		Topic    string `json:"topic"`
		Config   struct {
			Duration int `json:"duration"`
			Rounds   int `json:"rounds"`
		} `json:"config"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	debate, turn, err := dc.session.Initialize(input.DebateID, services.DebateConfig{
		Topic:    input.Topic,
		Duration: input.Config.Duration,
		Rounds:   input.Config.Rounds,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"debate":       debate,
		"current_turn": turn,
	})
}

func (dc *DebateController) GetState(c *gin.Context) {
	debate, turn, err := dc.session.GetState(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"debate":       debate,
		"current_turn": turn,
	})
}

func (dc *DebateController) GetStats(c *gin.Context) {
	stats, err := dc.session.GetStats(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (dc *DebateController) StartSpeaking(c *gin.Context) {
	var input struct {
		Duration int `json:"duration"`
	}
	_ = c.ShouldBindJSON(&input)

	turn, err := dc.session.StartSpeaking(c.Param("id"), input.Duration)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"turn": turn})
}

// CompleteTurn accepts either a JSON payload with a ready transcript, or a
// multipart upload whose "audio" file is normalized and transcribed before
// the turn is completed.
func (dc *DebateController) CompleteTurn(c *gin.Context) {
	debateID := c.Param("id")

	var data services.TurnCompletion

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fileHeader, err := c.FormFile("audio")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "audio file required"})
			return
		}

		audioPath, err := dc.media.NormalizeTurnAudio(fileHeader)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process audio"})
			return
		}
		defer os.Remove(audioPath)

		transcript, duration, err := services.TranscribeTurnAudio(audioPath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transcribe audio"})
			return
		}
		data = services.TurnCompletion{Transcript: transcript, Duration: duration}
	} else {
		var input struct {
			Transcript string  `json:"transcript"`
			AudioURL   string  `json:"audioUrl"`
			Duration   float64 `json:"duration"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		data = services.TurnCompletion{
			Transcript: input.Transcript,
			AudioURL:   input.AudioURL,
			Duration:   input.Duration,
		}
	}

	completed, next, err := dc.session.CompleteCurrentTurn(debateID, data)
	if err != nil {
		respondError(c, err)
		return
	}

	dc.kickAITurn(next != nil && next.Speaker == models.SpeakerAI, debateID)

	c.JSON(http.StatusOK, gin.H{
		"completed_turn": completed,
		"next_turn":      next,
	})
}

func (dc *DebateController) CanUserSpeak(c *gin.Context) {
	canSpeak, remaining, err := dc.session.CanUserSpeak(c.Param("id"), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"can_speak":         canSpeak,
		"seconds_remaining": remaining,
	})
}

func (dc *DebateController) CanAISpeak(c *gin.Context) {
	canSpeak, remaining, err := dc.session.CanAISpeak(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"can_speak":         canSpeak,
		"seconds_remaining": remaining,
	})
}

func (dc *DebateController) AISpeak(c *gin.Context) {
	debateID := c.Param("id")

	turn, err := dc.session.TriggerAISpeak(debateID)
	if err != nil {
		respondError(c, err)
		return
	}

	dc.kickAITurn(true, debateID)

	c.JSON(http.StatusOK, gin.H{"turn": turn})
}

func (dc *DebateController) Pause(c *gin.Context) {
	debate, err := dc.session.Pause(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debate": debate})
}

func (dc *DebateController) Resume(c *gin.Context) {
	debate, err := dc.session.Resume(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debate": debate})
}

func (dc *DebateController) End(c *gin.Context) {
	debate, err := dc.session.End(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"debate": debate})
}

// Sweep is the manual trigger used by tests and ops.
func (dc *DebateController) Sweep(c *gin.Context) {
	advanced := dc.sweeper.Tick()
	c.JSON(http.StatusOK, gin.H{"advanced": advanced})
}

// kickAITurn spawns the AI reply job when the debate just advanced onto the
// AI speaker and an API key is configured.
func (dc *DebateController) kickAITurn(aiTurn bool, debateID string) {
	if !aiTurn || os.Getenv("OPENAI_API_KEY") == "" {
		return
	}
	go services.ProcessAITurn(dc.engine, debateID)
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDebateNotFound), errors.Is(err, services.ErrTurnNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrDebateEnded):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotYourTurn):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
