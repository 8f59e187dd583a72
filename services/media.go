package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// MediaService normalizes uploaded turn recordings into the 16kHz mono m4a
// Whisper expects. Files land under UPLOAD_DIR (default /tmp/uploads); the
// caller owns cleanup of the returned path.
type MediaService struct {
	uploadDir string
}

func NewMediaService() *MediaService {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "/tmp/uploads"
	}
	return &MediaService{uploadDir: dir}
}

// NormalizeTurnAudio saves the uploaded recording and converts it for
// transcription. The original upload is removed either way.
func (m *MediaService) NormalizeTurnAudio(fileHeader *multipart.FileHeader) (string, error) {

	originalPath, err := m.saveUpload(fileHeader)
	if err != nil {
		return "", err
	}
	defer os.Remove(originalPath)

	normalizedPath, err := m.convertToM4A(originalPath)
	if err != nil {
		return "", err
	}

	return normalizedPath, nil
}

func (m *MediaService) saveUpload(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(m.uploadDir, os.ModePerm); err != nil {
		return "", err
	}

	ext := filepath.Ext(fileHeader.Filename)
	dstPath := filepath.Join(m.uploadDir, fmt.Sprintf("turn_%s%s", uuid.New().String(), ext))

	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}

	return dstPath, nil
}

func (m *MediaService) convertToM4A(inputPath string) (string, error) {

	outputPath := filepath.Join(
		m.uploadDir,
		fmt.Sprintf("normalized_%s.m4a", uuid.New().String()),
	)

	// 60-second timeout to prevent hanging FFmpeg processes
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "aac",
		"-b:a", "96k",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if err != nil {
		_ = os.Remove(outputPath)
		return "", fmt.Errorf("ffmpeg error: %v, output: %s", err, string(output))
	}

	return outputPath, nil
}
