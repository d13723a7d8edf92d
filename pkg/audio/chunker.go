package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// ProgressCallback 是进度回调函数类型
type ProgressCallback func(current, total int, message string)

// DefaultChunkLength 默认切片时长
const DefaultChunkLength = 5 * time.Minute

// Chunker 把一个音频文件按固定时长顺序切成多个文件
type Chunker struct {
	OutputDir        string
	ChunkLength      time.Duration
	Format           string // 输出格式，同时决定扩展名
	Runner           utils.CommandRunner
	ProgressCallback ProgressCallback
}

// NewChunker 创建切片器，chunkLength<=0 时使用默认的5分钟
func NewChunker(outputDir string, chunkLength time.Duration, runner utils.CommandRunner) *Chunker {
	if chunkLength <= 0 {
		chunkLength = DefaultChunkLength
	}
	if runner == nil {
		runner = utils.ExecRunner{}
	}
	return &Chunker{
		OutputDir:   outputDir,
		ChunkLength: chunkLength,
		Format:      "mp3",
		Runner:      runner,
	}
}

// ChunkName 返回第index个切片（从0开始）的文件名，如 talk_part001.mp3
func ChunkName(stem string, index int, format string) string {
	return fmt.Sprintf("%s_part%03d.%s", stem, index+1, format)
}

// PlanChunks 计算切片边界：共 ceil(duration/chunkLength) 段，最后一段截断到剩余时长。
// 计算以毫秒为单位进行，避免浮点误差产生多余的空切片
func PlanChunks(source string, duration float64, chunkLength time.Duration, outputDir, format string) []models.AudioChunk {
	durationMs := int64(duration*1000 + 0.5)
	chunkMs := chunkLength.Milliseconds()
	if durationMs <= 0 || chunkMs <= 0 {
		return nil
	}

	count := (durationMs + chunkMs - 1) / chunkMs
	stem := utils.StemName(source)
	chunks := make([]models.AudioChunk, 0, count)

	for i := int64(0); i < count; i++ {
		startMs := i * chunkMs
		endMs := startMs + chunkMs
		if endMs > durationMs {
			endMs = durationMs
		}
		chunks = append(chunks, models.AudioChunk{
			Source:     source,
			Index:      int(i),
			Start:      float64(startMs) / 1000,
			End:        float64(endMs) / 1000,
			OutputPath: filepath.Join(outputDir, ChunkName(stem, int(i), format)),
		})
	}
	return chunks
}

// Split 探测时长后逐段导出切片，返回按顺序排列的切片
func (c *Chunker) Split(ctx context.Context, inputPath string) ([]models.AudioChunk, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return nil, utils.NewError("读取输入音频失败", err)
	}
	if err := utils.EnsureDirExists(c.OutputDir); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	filename := filepath.Base(inputPath)
	info, err := ProbeInfo(ctx, c.Runner, inputPath)
	if err != nil {
		return nil, fmt.Errorf("获取音频时长失败: %w", err)
	}
	duration := info.Duration
	utils.Info("音频总时长: %s (%d Hz, %d ch, %s)",
		utils.FormatTimeDuration(duration), info.SampleRate, info.Channels, utils.FormatFileSize(info.Size))

	chunks := PlanChunks(inputPath, duration, c.ChunkLength, c.OutputDir, c.Format)
	utils.Info("正在分割 %s 为 %d 个片段...", filename, len(chunks))

	if c.ProgressCallback != nil {
		c.ProgressCallback(0, len(chunks), "准备分割音频")
	}

	for i, chunk := range chunks {
		if err := c.exportChunk(ctx, chunk); err != nil {
			return nil, err
		}
		utils.Info("Created: %s", filepath.Base(chunk.OutputPath))
		if c.ProgressCallback != nil {
			c.ProgressCallback(i+1, len(chunks), filepath.Base(chunk.OutputPath))
		}
	}

	return chunks, nil
}

func (c *Chunker) exportChunk(ctx context.Context, chunk models.AudioChunk) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", chunk.Source,
		"-ss", formatSeconds(chunk.Start),
		"-t", formatSeconds(chunk.Duration()),
		"-vn",
		chunk.OutputPath,
	}
	if _, err := c.Runner.Run(ctx, "ffmpeg", args, nil); err != nil {
		return fmt.Errorf("片段 %d 导出失败: %w", chunk.Index+1, err)
	}
	if !utils.CheckFileExists(chunk.OutputPath) {
		return fmt.Errorf("导出的片段不存在: %s", chunk.OutputPath)
	}
	return nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
