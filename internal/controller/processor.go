package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ccp-p/asr-media-cli/jatranscribe/internal/adapters"
	"github.com/ccp-p/asr-media-cli/jatranscribe/internal/ui"
	"github.com/ccp-p/asr-media-cli/jatranscribe/internal/watcher"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/align"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/asr"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/audio"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/cleaner"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/diarize"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/env"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/export"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// ErrNoInputFile 切片时没有指定输入文件
var ErrNoInputFile = errors.New("未指定输入音频文件")

// ProcessorController 处理器控制器，协调各个组件工作。所有文件都在调用方协程上顺序处理
type ProcessorController struct {
	// 配置
	Config  *models.Config
	HFToken string

	// 处理组件，为nil时按配置创建
	Runner             utils.CommandRunner
	Transcriber        asr.Transcriber // 纯识别流程
	DiarizeTranscriber asr.Transcriber // 话者分离流程中的识别，固定使用CPU
	Diarizer           diarize.Diarizer

	ErrorHandler *utils.ErrorHandler
	RunID        string
	Log          *logrus.Entry

	// 上下文控制
	ctx        context.Context
	cancelFunc context.CancelFunc

	// 状态数据
	Stats struct {
		StartTime       time.Time
		TotalFiles      int
		SuccessfulFiles int
		FailedFiles     int
	}

	cleanup []func()
	mu      sync.Mutex
}

// NewProcessorController 创建处理器控制器
func NewProcessorController(config *models.Config, hfToken string) *ProcessorController {
	if config == nil {
		config = models.NewDefaultConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	runID := uuid.NewString()

	pc := &ProcessorController{
		Config:       config,
		HFToken:      hfToken,
		ErrorHandler: utils.NewErrorHandler(),
		RunID:        runID,
		Log:          utils.WithField("run_id", runID),
		ctx:          ctx,
		cancelFunc:   cancel,
	}
	pc.Stats.StartTime = time.Now()
	pc.addCleanup(cancel)
	return pc
}

// Context 返回控制器的根上下文，收到中断信号后被取消
func (pc *ProcessorController) Context() context.Context {
	return pc.ctx
}

// SetupSignalHandlers 收到Ctrl+C或SIGTERM时取消上下文，正在运行的子进程随之被终止
func (pc *ProcessorController) SetupSignalHandlers() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	pc.addCleanup(func() { signal.Stop(c) })

	go func() {
		select {
		case <-c:
			pc.Log.Info("接收到中断信号，正在停止...")
			pc.cancelFunc()
		case <-pc.ctx.Done():
		}
	}()
}

func (pc *ProcessorController) runner() utils.CommandRunner {
	if pc.Runner == nil {
		pc.Runner = utils.ExecRunner{}
	}
	return pc.Runner
}

func (pc *ProcessorController) transcriber() asr.Transcriber {
	if pc.Transcriber == nil {
		pc.Transcriber = asr.NewWhisperTranscriber(pc.Config.PythonPath, pc.Config.WhisperModel, "", pc.runner())
	}
	return pc.Transcriber
}

// 话者分离占用GPU时，识别模型放在CPU上避免争用
func (pc *ProcessorController) diarizeTranscriber() asr.Transcriber {
	if pc.DiarizeTranscriber == nil {
		pc.DiarizeTranscriber = asr.NewWhisperTranscriber(pc.Config.PythonPath, pc.Config.WhisperModel, "cpu", pc.runner())
	}
	return pc.DiarizeTranscriber
}

func (pc *ProcessorController) diarizer(token string) diarize.Diarizer {
	if pc.Diarizer == nil {
		pc.Diarizer = diarize.NewPyannoteDiarizer(pc.Config.PythonPath, pc.Config.DiarizationPipeline, token, pc.runner())
	}
	return pc.Diarizer
}

func (pc *ProcessorController) progressBar(prefix string) *ui.ProgressBar {
	if !pc.Config.ShowProgress {
		return nil
	}
	return ui.NewProgressBar(0, prefix, "")
}

// SplitAudio 把inputFile按配置的分钟数切片到outputDir。参数为空时使用配置中的INPUT_FILE和INPUT_DIR
func (pc *ProcessorController) SplitAudio(inputFile, outputDir string) ([]models.AudioChunk, error) {
	if inputFile == "" {
		inputFile = pc.Config.InputFile
	}
	if inputFile == "" {
		return nil, ErrNoInputFile
	}
	if outputDir == "" {
		outputDir = pc.Config.InputDir
	}

	chunker := audio.NewChunker(outputDir, time.Duration(pc.Config.ChunkMinutes)*time.Minute, pc.runner())
	if bar := pc.progressBar("切片"); bar != nil {
		chunker.ProgressCallback = func(current, total int, message string) {
			bar.Total = total
			bar.Update(current, message)
			if current == total {
				bar.Complete("")
			}
		}
	}

	pc.Log.WithField("file", inputFile).Infof("开始切片，每段 %d 分钟", pc.Config.ChunkMinutes)

	var chunks []models.AudioChunk
	err := pc.ErrorHandler.SafeExecute("split", func() error {
		var err error
		chunks, err = chunker.Split(pc.ctx, inputFile)
		return err
	}, nil)
	if err != nil {
		pc.Stats.FailedFiles++
		return nil, err
	}

	pc.Stats.TotalFiles++
	pc.Stats.SuccessfulFiles++
	pc.Log.Infof("切片完成，共 %d 段，输出目录: %s", len(chunks), outputDir)
	return chunks, nil
}

// TranscribeAudio 识别inputDir中的全部音频，每个文件写出 <stem>.txt
func (pc *ProcessorController) TranscribeAudio(inputDir, outputDir string) ([]*models.Result, error) {
	if inputDir == "" {
		inputDir = pc.Config.InputDir
	}
	if outputDir == "" {
		outputDir = pc.Config.TranscriptDir
	}

	processor := asr.NewProcessor(pc.transcriber(), pc.Config.AudioExtensions)
	bar := pc.progressBar("识别")
	if bar != nil {
		processor.ProgressCallback = bar.Callback()
	}

	pc.Log.Infof("使用Whisper模型 %s 识别目录: %s", pc.Config.WhisperModel, inputDir)
	var results []*models.Result
	err := pc.ErrorHandler.SafeExecute("transcribe", func() error {
		var err error
		results, err = processor.TranscribeDirectory(pc.ctx, inputDir, outputDir)
		return err
	}, nil)
	if bar != nil && err == nil && len(results) > 0 {
		bar.Complete("")
	}
	pc.updateStats(len(results), err)
	return results, err
}

// TranscribeFile 识别单个文件到TRANSCRIPT_DIR，监听模式使用
func (pc *ProcessorController) TranscribeFile(ctx context.Context, audioPath string) (*models.Result, error) {
	processor := asr.NewProcessor(pc.transcriber(), pc.Config.AudioExtensions)
	return processor.TranscribeFile(ctx, audioPath, pc.Config.TranscriptDir)
}

// DiarizeFile 对单个文件执行话者分离和识别，对齐后写出JSON和文本结果。
// 失败时删除本文件已写出的部分结果
func (pc *ProcessorController) DiarizeFile(ctx context.Context, audioPath string) (*models.Result, error) {
	token, err := env.RequireToken(pc.HFToken)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	name := utils.StemName(audioPath)
	log := pc.Log.WithField("file", filepath.Base(audioPath))
	log.Infof("%s 开始话者分离和识别...", name)

	result := &models.Result{
		FilePath:    audioPath,
		Operation:   "diarize",
		OutputFiles: make(map[string]string),
	}

	var written []string
	removePartial := func() {
		for _, path := range written {
			if err := os.Remove(path); err == nil {
				log.Debugf("已删除不完整的输出: %s", path)
			}
		}
	}

	err = pc.ErrorHandler.SafeExecute("diarize", func() error {
		turns, err := pc.diarizer(token).Diarize(ctx, audioPath)
		if err != nil {
			return err
		}
		log.Debugf("话者分离完成，%d 个发言区间", len(turns))

		tr, err := pc.diarizeTranscriber().Transcribe(ctx, audioPath)
		if err != nil {
			return err
		}

		aligned := align.Align(tr.Segments, turns)
		result.SegmentCount = len(aligned)
		result.SpeakerCount = len(align.Speakers(aligned))

		jsonPath, err := export.NewJSONExporter(pc.Config.OutputDir).ExportDiarized(aligned, audioPath)
		if err != nil {
			return err
		}
		written = append(written, jsonPath)
		result.OutputFiles["json"] = jsonPath

		textPath, err := export.NewTextExporter(pc.Config.OutputDir).ExportDiarized(aligned, audioPath)
		if err != nil {
			return err
		}
		written = append(written, textPath)
		result.OutputFiles["text"] = textPath

		if pc.Config.ExportSRT {
			srtPath, err := export.NewSRTExporter(pc.Config.OutputDir).ExportSRT(aligned, audioPath)
			if err != nil {
				return err
			}
			written = append(written, srtPath)
			result.OutputFiles["srt"] = srtPath
		}
		return nil
	}, removePartial)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	result.ProcessTimeMs = elapsed.Milliseconds()
	log.Infof("%s 处理完成（耗时: %.1f秒，%d 段，%d 位话者）",
		name, elapsed.Seconds(), result.SegmentCount, result.SpeakerCount)
	log.Infof("结果已保存: %s 和 %s", result.OutputFiles["text"], result.OutputFiles["json"])
	return result, nil
}

// DiarizeAndTranscribe 话者分离流程。INPUT_FILE指向存在的文件时只处理该文件，
// 否则处理INPUT_DIR中的全部音频。令牌检查在任何模型调用之前进行
func (pc *ProcessorController) DiarizeAndTranscribe() ([]*models.Result, error) {
	if _, err := env.RequireToken(pc.HFToken); err != nil {
		return nil, err
	}

	files, err := pc.diarizeInputs()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		pc.Log.Warnf("目录 %s 中没有可处理的音频文件", pc.Config.InputDir)
		return nil, nil
	}

	bar := pc.progressBar("话者分离")
	results := make([]*models.Result, 0, len(files))
	for i, path := range files {
		if err := pc.ctx.Err(); err != nil {
			pc.updateStats(len(results), err)
			return results, err
		}
		if bar != nil {
			bar.Callback()(i+1, len(files), filepath.Base(path))
		}

		result, err := pc.DiarizeFile(pc.ctx, path)
		if err != nil {
			pc.updateStats(len(results), err)
			return results, err
		}
		results = append(results, result)
	}
	if bar != nil {
		bar.Complete("")
	}

	pc.updateStats(len(results), nil)
	return results, nil
}

func (pc *ProcessorController) diarizeInputs() ([]string, error) {
	if input := pc.Config.InputFile; input != "" {
		if utils.CheckFileExists(input) {
			return []string{input}, nil
		}
		pc.Log.Warnf("INPUT_FILE %s 不存在，改为处理目录 %s", input, pc.Config.InputDir)
	}

	pc.Log.Infof("处理 %s 目录中的全部音频文件...", pc.Config.InputDir)
	audioFiles, err := scanner.NewScanner(pc.Config.AudioExtensions).ScanDirectory(pc.Config.InputDir)
	if err != nil {
		return nil, utils.NewError(fmt.Sprintf("读取输入目录 %s 失败", pc.Config.InputDir), err)
	}

	files := make([]string, 0, len(audioFiles))
	for _, f := range audioFiles {
		files = append(files, f.Path)
	}
	return files, nil
}

// CleanTranscripts 整理识别文本目录，写出去重后的句子
func (pc *ProcessorController) CleanTranscripts(inputDir, outputFile string) ([]string, error) {
	if inputDir == "" {
		inputDir = pc.Config.TranscriptDir
	}
	if outputFile == "" {
		outputFile = pc.Config.CleanedFile
	}

	pc.Log.Infof("整理识别文本: %s -> %s", inputDir, outputFile)
	var sentences []string
	err := pc.ErrorHandler.SafeExecute("clean", func() error {
		var err error
		sentences, err = cleaner.NewCleaner().CleanDirectory(inputDir, outputFile)
		return err
	}, nil)
	return sentences, err
}

// Watch 监听INPUT_DIR，新音频按WATCH_FLOW逐个处理，直到上下文被取消
func (pc *ProcessorController) Watch() error {
	var flow adapters.FileFlow
	switch pc.Config.WatchFlow {
	case "diarize":
		if _, err := env.RequireToken(pc.HFToken); err != nil {
			return err
		}
		flow = pc.DiarizeFile
	default:
		flow = pc.TranscribeFile
	}

	adapter := adapters.NewFlowAdapter(flow)
	debounce := time.Duration(pc.Config.WatchDebounce * float64(time.Second))
	w := watcher.NewMediaWatcher(pc.Config.InputDir, pc.Config.AudioExtensions, debounce, adapter)

	pc.Log.Infof("监听模式 (%s)，目录: %s", pc.Config.WatchFlow, pc.Config.InputDir)
	err := w.Run(pc.ctx)

	done := adapter.Results()
	pc.Stats.TotalFiles += len(done)
	pc.Stats.SuccessfulFiles += len(done)
	return err
}

func (pc *ProcessorController) updateStats(succeeded int, err error) {
	pc.Stats.SuccessfulFiles += succeeded
	pc.Stats.TotalFiles += succeeded
	if err != nil {
		pc.Stats.FailedFiles++
		pc.Stats.TotalFiles++
	}
}

// PrintSummary 打印本次运行的统计
func (pc *ProcessorController) PrintSummary() {
	elapsed := time.Since(pc.Stats.StartTime).Seconds()
	fmt.Printf("\n处理完成 (run %s)，总用时: %s\n", pc.RunID, utils.FormatTimeDuration(elapsed))
	color.Green("成功: %d", pc.Stats.SuccessfulFiles)
	if pc.Stats.FailedFiles > 0 {
		color.Red("失败: %d", pc.Stats.FailedFiles)
		pc.ErrorHandler.PrintErrorStats()
	}
}

func (pc *ProcessorController) addCleanup(cleanup func()) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cleanup = append(pc.cleanup, cleanup)
}

// Cleanup 逆序执行所有清理函数
func (pc *ProcessorController) Cleanup() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	for i := len(pc.cleanup) - 1; i >= 0; i-- {
		pc.cleanup[i]()
	}
	pc.cleanup = nil
}
