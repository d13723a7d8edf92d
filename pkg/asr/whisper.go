package asr

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

//go:embed assets/whisper_transcribe.py
var whisperScript []byte

// WhisperTranscriber 通过内嵌的Python辅助脚本调用openai-whisper，语言固定为日语
type WhisperTranscriber struct {
	Python string // Python解释器
	Model  string // tiny, base, small, medium, large...
	Device string // 为空时由whisper自行选择，cpu/cuda
	Runner utils.CommandRunner
}

// NewWhisperTranscriber 创建Whisper识别器
func NewWhisperTranscriber(python, model, device string, runner utils.CommandRunner) *WhisperTranscriber {
	if python == "" {
		python = "python3"
	}
	if runner == nil {
		runner = utils.ExecRunner{}
	}
	return &WhisperTranscriber{Python: python, Model: model, Device: device, Runner: runner}
}

type whisperOutput struct {
	Language string `json:"language"`
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe 实现Transcriber
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*models.Transcription, error) {
	scriptPath, cleanup, err := utils.WriteTempScript("jt_whisper", whisperScript)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	args := []string{scriptPath,
		"--audio", audioPath,
		"--model", w.Model,
		"--language", models.Language,
	}
	if w.Device != "" {
		args = append(args, "--device", w.Device)
	}

	utils.Debug("加载Whisper模型 %s (device=%q)", w.Model, w.Device)
	out, err := w.Runner.Run(ctx, w.Python, args, nil)
	if err != nil {
		return nil, fmt.Errorf("whisper识别失败: %w", err)
	}

	return parseWhisperOutput(out)
}

func parseWhisperOutput(out []byte) (*models.Transcription, error) {
	var parsed whisperOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("解析whisper输出失败: %w", err)
	}

	tr := &models.Transcription{
		Language: parsed.Language,
		Text:     parsed.Text,
		Segments: make([]models.TranscriptionSegment, 0, len(parsed.Segments)),
	}
	for _, s := range parsed.Segments {
		tr.Segments = append(tr.Segments, models.TranscriptionSegment{
			Start: s.Start,
			End:   s.End,
			Text:  strings.TrimSpace(s.Text),
		})
	}
	return tr, nil
}
