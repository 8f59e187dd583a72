package services

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// TranscribeTurnAudio sends a normalized audio file to Whisper and returns
// the transcript text and spoken duration in seconds. Used by the multipart
// complete-turn path; the engine itself never calls it.
func TranscribeTurnAudio(filePath string) (string, float64, error) {

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", 0, fmt.Errorf("OPENAI_API_KEY not set")
	}

	client := openai.NewClient(apiKey)

	resp, err := client.CreateTranscription(
		context.Background(),
		openai.AudioRequest{
			Model:    openai.Whisper1,
			FilePath: filePath,
			Format:   openai.AudioResponseFormatVerboseJSON,
		},
	)
	if err != nil {
		return "", 0, fmt.Errorf("transcription failed: %w", err)
	}

	return resp.Text, float64(resp.Duration), nil
}
