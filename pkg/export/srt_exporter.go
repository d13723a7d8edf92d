package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// SRTExporter 负责将对齐结果导出为SRT字幕文件
type SRTExporter struct {
	OutputFolder string
}

// NewSRTExporter 创建一个新的SRT导出器
func NewSRTExporter(outputFolder string) *SRTExporter {
	return &SRTExporter{
		OutputFolder: outputFolder,
	}
}

// GenerateSRTContent 生成SRT格式内容，文本前带话者标签。空文本段落跳过，序号连续
func (e *SRTExporter) GenerateSRTContent(segments []models.AlignedSegment) string {
	var srtLines []string

	index := 0
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		index++

		srtLines = append(srtLines, fmt.Sprintf("%d", index))
		srtLines = append(srtLines, fmt.Sprintf("%s --> %s",
			utils.FormatSRTTime(segment.Start), utils.FormatSRTTime(segment.End)))
		srtLines = append(srtLines, fmt.Sprintf("%s: %s", segment.SpeakerOr(UnknownSpeaker), text))
		srtLines = append(srtLines, "") // 空行分隔
	}

	return strings.Join(srtLines, "\n")
}

// OutputPath 返回 <stem>_diarized.srt
func (e *SRTExporter) OutputPath(audioPath string) string {
	return filepath.Join(e.OutputFolder, utils.StemName(audioPath)+DiarizedSuffix+".srt")
}

// ExportSRT 导出SRT格式字幕文件
func (e *SRTExporter) ExportSRT(segments []models.AlignedSegment, audioPath string) (string, error) {
	if err := utils.EnsureDirExists(e.OutputFolder); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	outputFile := e.OutputPath(audioPath)
	if err := os.WriteFile(outputFile, []byte(e.GenerateSRTContent(segments)), 0644); err != nil {
		return "", fmt.Errorf("写入SRT文件失败: %w", err)
	}

	utils.Debug("已导出SRT字幕: %s", outputFile)
	return outputFile, nil
}
