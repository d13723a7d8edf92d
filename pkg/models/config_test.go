package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "split_audio", config.InputDir)
	assert.Equal(t, "transcripts", config.TranscriptDir)
	assert.Equal(t, "diarized_transcripts", config.OutputDir)
	assert.Equal(t, "cleaned_transcript.txt", config.CleanedFile)
	assert.Equal(t, 5, config.ChunkMinutes)
	assert.Equal(t, "medium", config.WhisperModel)
	assert.Equal(t, DefaultDiarizationPipeline, config.DiarizationPipeline)
	assert.Equal(t, []string{".mp3"}, config.AudioExtensions)
	assert.False(t, config.ExportSRT)
	assert.NoError(t, config.Validate())
}

func TestConfigValidate(t *testing.T) {
	config := NewDefaultConfig()

	config.ChunkMinutes = 0
	err := config.Validate()
	require.Error(t, err)
	configErr, ok := err.(*ConfigValidationError)
	require.True(t, ok)
	assert.Equal(t, "ChunkMinutes", configErr.Field)

	config.ChunkMinutes = 5
	config.WhisperModel = "gigantic"
	err = config.Validate()
	require.Error(t, err)
	configErr, ok = err.(*ConfigValidationError)
	require.True(t, ok)
	assert.Equal(t, "WhisperModel", configErr.Field)

	config.WhisperModel = "large-v3"
	config.AudioExtensions = []string{"mp3"}
	err = config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AudioExtensions")

	config.AudioExtensions = []string{".mp3"}
	config.WatchFlow = "split"
	assert.Error(t, config.Validate())
}

func TestConfigSaveAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	original := NewDefaultConfig()
	original.InputDir = "./chunks"
	original.ChunkMinutes = 10
	original.ExportSRT = true
	require.NoError(t, original.SaveToFile(path))

	loaded := NewDefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))

	assert.Equal(t, original.InputDir, loaded.InputDir)
	assert.Equal(t, original.ChunkMinutes, loaded.ChunkMinutes)
	assert.Equal(t, original.ExportSRT, loaded.ExportSRT)
}

func TestConfigLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "whisper_model: small\nchunk_minutes: 3\naudio_extensions:\n  - .mp3\n  - .wav\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := NewDefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "small", config.WhisperModel)
	assert.Equal(t, 3, config.ChunkMinutes)
	assert.Equal(t, []string{".mp3", ".wav"}, config.AudioExtensions)
	// 未出现的字段保持默认值
	assert.Equal(t, "transcripts", config.TranscriptDir)
}

func TestConfigLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chunk_minutes": 0}`), 0644))

	config := NewDefaultConfig()
	assert.Error(t, config.LoadFromFile(path))
	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "missing.json")))
}

func TestConfigApplyEnv(t *testing.T) {
	env := map[string]string{
		"WHISPER_MODEL": "large",
		"OUTPUT_DIR":    " out ",
		"INPUT_FILE":    "talk.mp3",
		"CHUNK_MINUTES": "7",
		"EXPORT_SRT":    "true",
		"LOG_LEVEL":     "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	config := NewDefaultConfig()
	require.NoError(t, config.ApplyEnv(lookup))

	assert.Equal(t, "large", config.WhisperModel)
	assert.Equal(t, "out", config.OutputDir)
	assert.Equal(t, "talk.mp3", config.InputFile)
	assert.Equal(t, 7, config.ChunkMinutes)
	assert.True(t, config.ExportSRT)
	// 空值不覆盖
	assert.Equal(t, "INFO", config.LogLevel)
}

func TestConfigApplyEnvInvalid(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "CHUNK_MINUTES" {
			return "five", true
		}
		return "", false
	}

	config := NewDefaultConfig()
	err := config.ApplyEnv(lookup)
	require.Error(t, err)
	configErr, ok := err.(*ConfigValidationError)
	require.True(t, ok)
	assert.Equal(t, "ChunkMinutes", configErr.Field)
}
