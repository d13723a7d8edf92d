package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// UnknownSpeaker 未匹配到话者时显示的标签
const UnknownSpeaker = "不明"

// TextExporter 导出纯文本识别结果和可读的话者分离文本
type TextExporter struct {
	OutputFolder string
}

// NewTextExporter 创建文本导出器
func NewTextExporter(outputFolder string) *TextExporter {
	return &TextExporter{OutputFolder: outputFolder}
}

// FormatDiarizedLine 生成一行 [HH:MM:SS.mmm --> HH:MM:SS.mmm] 话者: 文本
func FormatDiarizedLine(seg models.AlignedSegment) string {
	return fmt.Sprintf("[%s --> %s] %s: %s",
		utils.FormatTimestamp(seg.Start),
		utils.FormatTimestamp(seg.End),
		seg.SpeakerOr(UnknownSpeaker),
		seg.Text)
}

// GenerateDiarizedContent 每个段落一行，每行以换行结尾
func GenerateDiarizedContent(segments []models.AlignedSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		b.WriteString(FormatDiarizedLine(seg))
		b.WriteByte('\n')
	}
	return b.String()
}

// DiarizedPath 返回 <stem>_diarized.txt
func (e *TextExporter) DiarizedPath(audioPath string) string {
	return filepath.Join(e.OutputFolder, utils.StemName(audioPath)+DiarizedSuffix+".txt")
}

// TranscriptPath 返回 <stem>.txt
func (e *TextExporter) TranscriptPath(audioPath string) string {
	return filepath.Join(e.OutputFolder, utils.StemName(audioPath)+".txt")
}

// ExportDiarized 导出可读的话者分离文本
func (e *TextExporter) ExportDiarized(segments []models.AlignedSegment, audioPath string) (string, error) {
	outputFile := e.DiarizedPath(audioPath)
	if err := e.write(outputFile, GenerateDiarizedContent(segments)); err != nil {
		return "", err
	}
	utils.Debug("已导出文本文件: %s", outputFile)
	return outputFile, nil
}

// ExportTranscript 原样写出识别的完整文本
func (e *TextExporter) ExportTranscript(text string, audioPath string) (string, error) {
	outputFile := e.TranscriptPath(audioPath)
	if err := e.write(outputFile, text); err != nil {
		return "", err
	}
	utils.Debug("已导出文本文件: %s", outputFile)
	return outputFile, nil
}

func (e *TextExporter) write(path, content string) error {
	if err := utils.EnsureDirExists(e.OutputFolder); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("写入文本文件失败: %w", err)
	}
	return nil
}
