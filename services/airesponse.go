package services

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/pgadwala09/VocabPro-sub001/models"
)

var stancePrompts = map[string]string{
	"opponent": `You are a sharp debate opponent arguing against the user's position.
Make 2-3 concrete counterpoints to their latest argument.
Stay on topic and keep it persuasive.`,

	"devils_advocate": `You are a devil's advocate.
Push back on the user's strongest claim with 2-3 pointed challenges.
Concede nothing.`,

	"coach": `You are a friendly debate coach playing the other side.
Respond with 2-3 counterarguments, then one short tip on how the user
could have argued better.`,
}

// GenerateDebateReply produces the AI side's next argument from the debate
// topic and the transcripts so far.
func GenerateDebateReply(debate *models.Debate, turns []models.Turn) (string, error) {

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY not set")
	}

	client := openai.NewClient(apiKey)

	systemPrompt, ok := stancePrompts[os.Getenv("AI_DEBATE_STANCE")]
	if !ok {
		systemPrompt = stancePrompts["opponent"]
	}

	systemMessage := fmt.Sprintf(`%s

Debate topic: %s

RULES:
1. Address the user's most recent argument directly
2. 2-3 counterpoints, no numbered lists
3. Keep total under 120 words.`,
		systemPrompt,
		debate.Topic,
	)

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
	}
	for i := range turns {
		t := &turns[i]
		if t.Transcript == "" || !t.IsTerminal() {
			continue
		}
		role := openai.ChatMessageRoleUser
		if t.Speaker == models.SpeakerAI {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: t.Transcript,
		})
	}

	resp, err := client.CreateChatCompletion(
		context.Background(),
		openai.ChatCompletionRequest{
			Model:       openai.GPT4oMini,
			Temperature: 0.8,
			MaxTokens:   250,
			Messages:    messages,
		},
	)
	if err != nil {
		return "", err
	}

	return resp.Choices[0].Message.Content, nil
}

// ProcessAITurn runs as a background job after the debate advances onto the
// AI speaker: it generates the AI's argument, completes the AI turn with it,
// and advances back to the human. On any failure the turn is left speaking
// and the sweep reclaims it, so the debate never stalls on OpenAI.
func ProcessAITurn(engine *TurnEngine, debateID string) {

	log := logrus.WithFields(logrus.Fields{
		"component": "ai_turn",
		"debate_id": debateID,
	})

	turn, err := engine.TriggerAISpeak(debateID)
	if err != nil {
		log.WithError(err).Warn("AI turn not available")
		return
	}

	var debate models.Debate
	if err := engine.db.First(&debate, "id = ?", debateID).Error; err != nil {
		log.WithError(err).Error("failed to load debate")
		return
	}
	if !debate.IsActive() {
		log.Info("debate no longer active, abandoning AI turn")
		return
	}

	var turns []models.Turn
	if err := engine.db.
		Where("debate_id = ?", debateID).
		Order("turn_number asc").
		Find(&turns).Error; err != nil {
		log.WithError(err).Error("failed to load turns")
		return
	}

	reply, err := GenerateDebateReply(&debate, turns)
	if err != nil {
		log.WithError(err).Error("reply generation failed, sweep will reclaim the turn")
		return
	}

	// Completion and successor creation commit together; if the store hiccups
	// the turn stays speaking and the sweep reclaims it.
	if _, _, err := engine.CompleteAndAdvance(debateID, turn.ID, TurnCompletion{Transcript: reply}); err != nil {
		log.WithError(err).Warn("AI turn not committed")
		return
	}

	log.WithField("turn_id", turn.ID).Info("AI turn completed")
}
