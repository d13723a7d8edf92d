package asr

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/export"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// Processor 对目录中的音频逐个识别并写出纯文本
type Processor struct {
	Transcriber      Transcriber
	Scanner          *scanner.Scanner
	ProgressCallback ProgressCallback
}

// NewProcessor 创建批量识别处理器
func NewProcessor(transcriber Transcriber, extensions []string) *Processor {
	return &Processor{
		Transcriber: transcriber,
		Scanner:     scanner.NewScanner(extensions),
	}
}

// TranscribeFile 识别单个文件，写出 <outputDir>/<stem>.txt
func (p *Processor) TranscribeFile(ctx context.Context, audioPath, outputDir string) (*models.Result, error) {
	start := time.Now()
	name := filepath.Base(audioPath)
	utils.Info("%s 开始识别...", name)

	tr, err := p.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, utils.NewError(fmt.Sprintf("识别 %s 失败", name), err)
	}

	outputFile, err := export.NewTextExporter(outputDir).ExportTranscript(tr.Text, audioPath)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	utils.Info("%s 识别完成（耗时: %.1f秒）", name, elapsed.Seconds())

	return &models.Result{
		FilePath:      audioPath,
		Operation:     "transcribe",
		OutputFiles:   map[string]string{"text": outputFile},
		SegmentCount:  len(tr.Segments),
		ProcessTimeMs: elapsed.Milliseconds(),
	}, nil
}

// TranscribeDirectory 按文件名顺序识别目录中的所有音频，遇到第一个错误即停止
func (p *Processor) TranscribeDirectory(ctx context.Context, inputDir, outputDir string) ([]*models.Result, error) {
	files, err := p.Scanner.ScanDirectory(inputDir)
	if err != nil {
		return nil, utils.NewError(fmt.Sprintf("读取输入目录 %s 失败", inputDir), err)
	}
	if err := utils.EnsureDirExists(outputDir); err != nil {
		return nil, utils.NewError("创建输出目录失败", err)
	}

	if len(files) == 0 {
		utils.Warn("目录 %s 中没有可识别的音频文件", inputDir)
		return nil, nil
	}

	results := make([]*models.Result, 0, len(files))
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if p.ProgressCallback != nil {
			p.ProgressCallback(i+1, len(files), f.Name)
		}

		result, err := p.TranscribeFile(ctx, f.Path, outputDir)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}
