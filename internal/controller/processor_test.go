package controller

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/env"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
)

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (*models.Transcription, error) {
	ret := m.Called(audioPath)
	tr, _ := ret.Get(0).(*models.Transcription)
	return tr, ret.Error(1)
}

type mockDiarizer struct {
	mock.Mock
}

func (m *mockDiarizer) Diarize(ctx context.Context, audioPath string) ([]models.SpeakerTurn, error) {
	ret := m.Called(audioPath)
	turns, _ := ret.Get(0).([]models.SpeakerTurn)
	return turns, ret.Error(1)
}

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	ret := m.Called(name, args, env)
	out, _ := ret.Get(0).([]byte)
	return out, ret.Error(1)
}

func testConfig(t *testing.T) *models.Config {
	t.Helper()
	root := t.TempDir()
	config := models.NewDefaultConfig()
	config.InputDir = filepath.Join(root, "split_audio")
	config.TranscriptDir = filepath.Join(root, "transcripts")
	config.OutputDir = filepath.Join(root, "diarized_transcripts")
	config.CleanedFile = filepath.Join(root, "cleaned_transcript.txt")
	config.ShowProgress = false
	require.NoError(t, os.MkdirAll(config.InputDir, 0755))
	return config
}

func writeAudio(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0644))
	}
}

func newTestController(t *testing.T, config *models.Config, token string) *ProcessorController {
	t.Helper()
	pc := NewProcessorController(config, token)
	t.Cleanup(pc.Cleanup)
	return pc
}

func sampleTranscription() *models.Transcription {
	return &models.Transcription{
		Language: "ja",
		Text:     "こんにちは。今日は晴れです。",
		Segments: []models.TranscriptionSegment{
			{Start: 0, End: 10, Text: "こんにちは。"},
			{Start: 20, End: 25, Text: "今日は晴れです。"},
		},
	}
}

func TestNewProcessorController(t *testing.T) {
	pc := newTestController(t, nil, "")
	assert.NotNil(t, pc.Config)
	assert.NotEmpty(t, pc.RunID)
	assert.Equal(t, pc.RunID, pc.Log.Data["run_id"])
	assert.NoError(t, pc.Context().Err())

	pc.Cleanup()
	assert.ErrorIs(t, pc.Context().Err(), context.Canceled)
}

func TestDiarizeAndTranscribeRequiresTokenFirst(t *testing.T) {
	t.Setenv(env.TokenVar, "")
	config := testConfig(t)
	writeAudio(t, config.InputDir, "a.mp3")

	pc := newTestController(t, config, "")
	diarizer := new(mockDiarizer)
	transcriber := new(mockTranscriber)
	pc.Diarizer = diarizer
	pc.DiarizeTranscriber = transcriber

	_, err := pc.DiarizeAndTranscribe()
	assert.ErrorIs(t, err, env.ErrMissingToken)
	diarizer.AssertNotCalled(t, "Diarize", mock.Anything)
	transcriber.AssertNotCalled(t, "Transcribe", mock.Anything)

	config.WatchFlow = "diarize"
	assert.ErrorIs(t, pc.Watch(), env.ErrMissingToken, "diarize监听模式同样需要令牌")
}

func TestDiarizeAndTranscribeDirectory(t *testing.T) {
	config := testConfig(t)
	writeAudio(t, config.InputDir, "talk_part001.mp3", "talk_part002.MP3", "readme.txt")

	pc := newTestController(t, config, "hf_token")
	diarizer := new(mockDiarizer)
	transcriber := new(mockTranscriber)
	pc.Diarizer = diarizer
	pc.DiarizeTranscriber = transcriber

	turns := []models.SpeakerTurn{
		{Start: 0, End: 4, Speaker: "A"},
		{Start: 3, End: 10, Speaker: "B"},
	}
	for _, name := range []string{"talk_part001.mp3", "talk_part002.MP3"} {
		path := filepath.Join(config.InputDir, name)
		diarizer.On("Diarize", path).Return(turns, nil).Once()
		transcriber.On("Transcribe", path).Return(sampleTranscription(), nil).Once()
	}

	results, err := pc.DiarizeAndTranscribe()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 2, results[0].SegmentCount)
	assert.Equal(t, 1, results[0].SpeakerCount)
	assert.Equal(t, 2, pc.Stats.SuccessfulFiles)

	text, err := os.ReadFile(filepath.Join(config.OutputDir, "talk_part001_diarized.txt"))
	require.NoError(t, err)
	assert.Equal(t,
		"[00:00:00.000 --> 00:00:10.000] B: こんにちは。\n"+
			"[00:00:20.000 --> 00:00:25.000] 不明: 今日は晴れです。\n",
		string(text))

	raw, err := os.ReadFile(filepath.Join(config.OutputDir, "talk_part002_diarized.json"))
	require.NoError(t, err)
	var doc struct {
		Segments []models.AlignedSegment `json:"segments"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Segments, 2)
	require.NotNil(t, doc.Segments[0].Speaker)
	assert.Equal(t, "B", *doc.Segments[0].Speaker)
	assert.Nil(t, doc.Segments[1].Speaker)

	assert.NoFileExists(t, filepath.Join(config.OutputDir, "talk_part001_diarized.srt"))
	diarizer.AssertExpectations(t)
	transcriber.AssertExpectations(t)
}

func TestDiarizeAndTranscribeSingleInputFile(t *testing.T) {
	config := testConfig(t)
	writeAudio(t, config.InputDir, "other.mp3")
	single := filepath.Join(t.TempDir(), "meeting.mp3")
	writeAudio(t, filepath.Dir(single), filepath.Base(single))
	config.InputFile = single
	config.ExportSRT = true

	pc := newTestController(t, config, "hf_token")
	diarizer := new(mockDiarizer)
	transcriber := new(mockTranscriber)
	pc.Diarizer = diarizer
	pc.DiarizeTranscriber = transcriber

	diarizer.On("Diarize", single).Return([]models.SpeakerTurn{{Start: 0, End: 30, Speaker: "SPEAKER_00"}}, nil).Once()
	transcriber.On("Transcribe", single).Return(sampleTranscription(), nil).Once()

	results, err := pc.DiarizeAndTranscribe()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, single, results[0].FilePath)
	assert.FileExists(t, results[0].OutputFiles["srt"])
	assert.Equal(t, filepath.Join(config.OutputDir, "meeting_diarized.json"), results[0].OutputFiles["json"])

	diarizer.AssertNotCalled(t, "Diarize", filepath.Join(config.InputDir, "other.mp3"))
}

func TestDiarizeAndTranscribeStopsOnFirstFault(t *testing.T) {
	config := testConfig(t)
	writeAudio(t, config.InputDir, "a.mp3", "b.mp3", "c.mp3")

	pc := newTestController(t, config, "hf_token")
	diarizer := new(mockDiarizer)
	transcriber := new(mockTranscriber)
	pc.Diarizer = diarizer
	pc.DiarizeTranscriber = transcriber

	a := filepath.Join(config.InputDir, "a.mp3")
	b := filepath.Join(config.InputDir, "b.mp3")
	diarizer.On("Diarize", a).Return([]models.SpeakerTurn{}, nil).Once()
	transcriber.On("Transcribe", a).Return(sampleTranscription(), nil).Once()
	diarizer.On("Diarize", b).Return([]models.SpeakerTurn{}, nil).Once()
	transcriber.On("Transcribe", b).Return(nil, errors.New("out of memory")).Once()

	results, err := pc.DiarizeAndTranscribe()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of memory")
	assert.Len(t, results, 1)
	assert.Equal(t, 1, pc.Stats.FailedFiles)
	assert.NotEmpty(t, pc.ErrorHandler.GetErrorStats()["diarize"])

	diarizer.AssertNotCalled(t, "Diarize", filepath.Join(config.InputDir, "c.mp3"))
	assert.NoFileExists(t, filepath.Join(config.OutputDir, "b_diarized.json"))
}

func TestDiarizeFileRemovesPartialOutputs(t *testing.T) {
	config := testConfig(t)
	writeAudio(t, config.InputDir, "a.mp3")
	config.ExportSRT = true

	pc := newTestController(t, config, "hf_token")
	diarizer := new(mockDiarizer)
	transcriber := new(mockTranscriber)
	pc.Diarizer = diarizer
	pc.DiarizeTranscriber = transcriber

	path := filepath.Join(config.InputDir, "a.mp3")
	diarizer.On("Diarize", path).Return([]models.SpeakerTurn{}, nil).Once()
	transcriber.On("Transcribe", path).Return(sampleTranscription(), nil).Once()

	// SRT的目标路径被目录占用，写入失败
	require.NoError(t, os.MkdirAll(filepath.Join(config.OutputDir, "a_diarized.srt"), 0755))

	_, err := pc.DiarizeFile(context.Background(), path)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(config.OutputDir, "a_diarized.json"))
	assert.NoFileExists(t, filepath.Join(config.OutputDir, "a_diarized.txt"))
}

func TestDiarizeAndTranscribeMissingInputDir(t *testing.T) {
	config := testConfig(t)
	config.InputDir = filepath.Join(t.TempDir(), "nope")

	pc := newTestController(t, config, "hf_token")
	pc.Diarizer = new(mockDiarizer)
	pc.DiarizeTranscriber = new(mockTranscriber)

	_, err := pc.DiarizeAndTranscribe()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTranscribeAudio(t *testing.T) {
	config := testConfig(t)
	writeAudio(t, config.InputDir, "x_part001.mp3")

	pc := newTestController(t, config, "")
	transcriber := new(mockTranscriber)
	pc.Transcriber = transcriber
	transcriber.On("Transcribe", filepath.Join(config.InputDir, "x_part001.mp3")).
		Return(sampleTranscription(), nil).Once()

	results, err := pc.TranscribeAudio("", "")
	require.NoError(t, err)
	require.Len(t, results, 1)

	data, err := os.ReadFile(filepath.Join(config.TranscriptDir, "x_part001.txt"))
	require.NoError(t, err)
	assert.Equal(t, "こんにちは。今日は晴れです。", string(data))
	assert.Equal(t, 1, pc.Stats.SuccessfulFiles)
}

func TestTranscribeAudioFailure(t *testing.T) {
	config := testConfig(t)
	writeAudio(t, config.InputDir, "x.mp3")

	pc := newTestController(t, config, "")
	transcriber := new(mockTranscriber)
	pc.Transcriber = transcriber
	transcriber.On("Transcribe", mock.Anything).Return(nil, errors.New("crash")).Once()

	_, err := pc.TranscribeAudio("", "")
	require.Error(t, err)
	assert.Equal(t, 1, pc.Stats.FailedFiles)
	assert.Contains(t, pc.ErrorHandler.GetErrorStats(), "transcribe")
}

func TestCleanTranscripts(t *testing.T) {
	config := testConfig(t)
	require.NoError(t, os.MkdirAll(config.TranscriptDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(config.TranscriptDir, "a_part001.txt"),
		[]byte("えーと。今日は晴れです。えーと。"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(config.TranscriptDir, "a_part002.txt"),
		[]byte("今日は晴れです。明日は雨が降ります！"), 0644))

	pc := newTestController(t, config, "")
	sentences, err := pc.CleanTranscripts("", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"今日は晴れです", "明日は雨が降ります"}, sentences)

	data, err := os.ReadFile(config.CleanedFile)
	require.NoError(t, err)
	assert.Equal(t, "今日は晴れです。\n明日は雨が降ります。\n", string(data))
}

func TestSplitAudio(t *testing.T) {
	config := testConfig(t)
	config.ChunkMinutes = 5
	input := filepath.Join(t.TempDir(), "250210_1013.MP3")
	require.NoError(t, os.WriteFile(input, []byte("audio"), 0644))

	runner := new(mockRunner)
	runner.On("Run", "ffprobe", mock.Anything, mock.Anything).
		Return([]byte(`{"format":{"duration":"720.0"}}`), nil).Once()
	runner.On("Run", "ffmpeg", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			argv := args.Get(1).([]string)
			_ = os.WriteFile(argv[len(argv)-1], []byte("mp3"), 0644)
		}).
		Return([]byte(nil), nil).Times(3)

	pc := newTestController(t, config, "")
	pc.Runner = runner

	chunks, err := pc.SplitAudio(input, "")
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, filepath.Join(config.InputDir, "250210_1013_part003.mp3"), chunks[2].OutputPath)
	assert.Equal(t, 120.0, chunks[2].Duration())
	runner.AssertExpectations(t)
}

func TestSplitAudioWithoutInput(t *testing.T) {
	pc := newTestController(t, testConfig(t), "")
	_, err := pc.SplitAudio("", "")
	assert.ErrorIs(t, err, ErrNoInputFile)
}
