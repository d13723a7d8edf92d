package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	called := m.Called(ctx, name, args, env)
	out, _ := called.Get(0).([]byte)
	return out, called.Error(1)
}

// 模拟ffmpeg：在最后一个参数指定的位置创建文件
func touchOutput(args mock.Arguments) {
	argv := args.Get(2).([]string)
	_ = os.WriteFile(argv[len(argv)-1], []byte("mp3"), 0644)
}

func TestPlanChunksTwelveMinutes(t *testing.T) {
	chunks := PlanChunks("/in/250210_1013.MP3", 12*60, 5*time.Minute, "split_audio", "mp3")

	require.Len(t, chunks, 3)
	lengths := []float64{chunks[0].Duration(), chunks[1].Duration(), chunks[2].Duration()}
	assert.Equal(t, []float64{300, 300, 120}, lengths)

	assert.Equal(t, 0.0, chunks[0].Start)
	assert.Equal(t, 300.0, chunks[1].Start)
	assert.Equal(t, 720.0, chunks[2].End)
	assert.Equal(t, filepath.Join("split_audio", "250210_1013_part001.mp3"), chunks[0].OutputPath)
	assert.Equal(t, filepath.Join("split_audio", "250210_1013_part003.mp3"), chunks[2].OutputPath)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "/in/250210_1013.MP3", c.Source)
	}
}

func TestPlanChunksExactMultiple(t *testing.T) {
	chunks := PlanChunks("a.mp3", 600, 5*time.Minute, "out", "mp3")
	require.Len(t, chunks, 2)
	assert.Equal(t, 300.0, chunks[1].Duration())
}

func TestPlanChunksShortAndEmpty(t *testing.T) {
	chunks := PlanChunks("a.mp3", 42.5, 5*time.Minute, "out", "mp3")
	require.Len(t, chunks, 1)
	assert.Equal(t, 42.5, chunks[0].End)

	assert.Empty(t, PlanChunks("a.mp3", 0, 5*time.Minute, "out", "mp3"))
	assert.Empty(t, PlanChunks("a.mp3", 10, 0, "out", "mp3"))
}

func TestChunkName(t *testing.T) {
	assert.Equal(t, "talk_part001.mp3", ChunkName("talk", 0, "mp3"))
	assert.Equal(t, "talk_part120.wav", ChunkName("talk", 119, "wav"))
}

func TestChunkerSplit(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "lecture.mp3")
	require.NoError(t, os.WriteFile(input, []byte("audio"), 0644))
	outDir := filepath.Join(dir, "split_audio")

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, "ffprobe", mock.Anything, mock.Anything).Return([]byte(`{"streams":[{"sample_rate":"44100","channels":1}],"format":{"duration":"720"}}`), nil)
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, mock.Anything).Run(touchOutput).Return([]byte(nil), nil)

	var progress []int
	chunker := NewChunker(outDir, 5*time.Minute, runner)
	chunker.ProgressCallback = func(current, total int, message string) {
		assert.Equal(t, 3, total)
		progress = append(progress, current)
	}

	chunks, err := chunker.Split(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, progress)

	for _, c := range chunks {
		assert.FileExists(t, c.OutputPath)
	}

	runner.AssertNumberOfCalls(t, "Run", 4)
	last := runner.Calls[3].Arguments.Get(2).([]string)
	assert.Contains(t, last, "600.000")
	assert.Contains(t, last, "120.000")
	assert.Equal(t, filepath.Join(outDir, "lecture_part003.mp3"), last[len(last)-1])
}

func TestChunkerSplitStopsOnFirstFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "lecture.mp3")
	require.NoError(t, os.WriteFile(input, []byte("audio"), 0644))

	runner := new(mockRunner)
	runner.On("Run", mock.Anything, "ffprobe", mock.Anything, mock.Anything).Return([]byte(`{"format":{"duration":"900"}}`), nil)
	runner.On("Run", mock.Anything, "ffmpeg", mock.Anything, mock.Anything).Return([]byte(nil), errors.New("encoder missing"))

	_, err := NewChunker(filepath.Join(dir, "out"), 5*time.Minute, runner).Split(context.Background(), input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "片段 1")
	runner.AssertNumberOfCalls(t, "Run", 2)
}

func TestChunkerSplitMissingInput(t *testing.T) {
	runner := new(mockRunner)
	_, err := NewChunker(t.TempDir(), 0, runner).Split(context.Background(), filepath.Join(t.TempDir(), "missing.mp3"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	runner.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
