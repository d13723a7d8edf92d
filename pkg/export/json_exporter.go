package export

import (
	"fmt"
	"path/filepath"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// DiarizedSuffix 话者分离结果文件名后缀
const DiarizedSuffix = "_diarized"

// DiarizedDocument 话者分离结果的JSON结构
type DiarizedDocument struct {
	Segments []models.AlignedSegment `json:"segments"`
}

// JSONExporter 负责将对齐结果导出为JSON文件
type JSONExporter struct {
	OutputFolder string
}

// NewJSONExporter 创建一个新的JSON导出器
func NewJSONExporter(outputFolder string) *JSONExporter {
	return &JSONExporter{
		OutputFolder: outputFolder,
	}
}

// OutputPath 返回音频对应的JSON输出路径 <stem>_diarized.json
func (e *JSONExporter) OutputPath(audioPath string) string {
	return filepath.Join(e.OutputFolder, utils.StemName(audioPath)+DiarizedSuffix+".json")
}

// ExportDiarized 导出 {"segments":[...]}，未知话者写为null
func (e *JSONExporter) ExportDiarized(segments []models.AlignedSegment, audioPath string) (string, error) {
	if segments == nil {
		segments = []models.AlignedSegment{}
	}

	outputFile := e.OutputPath(audioPath)
	if err := utils.SaveJSONFile(outputFile, DiarizedDocument{Segments: segments}); err != nil {
		return "", fmt.Errorf("导出JSON失败: %w", err)
	}

	utils.Debug("已导出JSON文件: %s", outputFile)
	return outputFile, nil
}
