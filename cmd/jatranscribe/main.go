package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ccp-p/asr-media-cli/jatranscribe/internal/controller"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/env"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

const usage = `用法: jatranscribe <命令> [参数]

命令:
  split       按固定时长切分音频 (ffmpeg)
  transcribe  识别目录中的音频，每个文件输出一个文本
  diarize     话者分离 + 识别，输出JSON和带时间戳的文本
  clean       整理识别文本：去除填充词、短句和重复句
  watch       监听音频目录，新文件自动处理
  env         检查 .env 和 HF_TOKEN
  config      把当前生效的配置写入文件

执行 jatranscribe <命令> -h 查看各命令的参数`

// options 各子命令共用的参数
type options struct {
	configFile string
	envFile    string
	logLevel   string
	logFile    string
	noProgress bool

	inputFile  string
	inputDir   string
	outputDir  string
	outputFile string
	model      string
	minutes    int
	flow       string
	srt        bool
}

func newFlagSet(cmd string, opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "配置文件路径 (JSON或YAML)")
	fs.StringVar(&opts.envFile, "env", env.DefaultPath, ".env文件路径")
	fs.StringVar(&opts.logLevel, "log-level", "", "日志级别 (VERBOSE, INFO, WARN 或 debug/info/warn/error)")
	fs.StringVar(&opts.logFile, "log-file", "", "日志文件路径")
	fs.BoolVar(&opts.noProgress, "no-progress", false, "不显示进度条")

	switch cmd {
	case "split":
		fs.StringVar(&opts.outputDir, "out", "", "切片输出目录 (默认 INPUT_DIR)")
		fs.IntVar(&opts.minutes, "minutes", 0, "每段时长（分钟，默认 CHUNK_MINUTES）")
	case "transcribe":
		fs.StringVar(&opts.inputDir, "in", "", "音频目录 (默认 INPUT_DIR)")
		fs.StringVar(&opts.outputDir, "out", "", "文本输出目录 (默认 TRANSCRIPT_DIR)")
		fs.StringVar(&opts.model, "model", "", "Whisper模型 (默认 WHISPER_MODEL)")
	case "diarize":
		fs.StringVar(&opts.inputFile, "input-file", "", "只处理这个文件 (默认 INPUT_FILE)")
		fs.StringVar(&opts.inputDir, "in", "", "音频目录 (默认 INPUT_DIR)")
		fs.StringVar(&opts.outputDir, "out", "", "输出目录 (默认 OUTPUT_DIR)")
		fs.StringVar(&opts.model, "model", "", "Whisper模型 (默认 WHISPER_MODEL)")
		fs.BoolVar(&opts.srt, "srt", false, "同时导出SRT字幕")
	case "clean":
		fs.StringVar(&opts.inputDir, "in", "", "识别文本目录 (默认 TRANSCRIPT_DIR)")
		fs.StringVar(&opts.outputFile, "out", "", "输出文件 (默认 CLEANED_FILE)")
	case "watch":
		fs.StringVar(&opts.inputDir, "in", "", "监听的音频目录 (默认 INPUT_DIR)")
		fs.StringVar(&opts.flow, "flow", "", "处理流程: transcribe 或 diarize")
	case "config":
		fs.StringVar(&opts.outputFile, "out", "config.yaml", "写入的配置文件")
	}
	return fs
}

// buildConfig 按 默认值 < 配置文件 < 环境变量 < 命令行参数 的顺序合成配置
func buildConfig(opts *options, lookup func(string) (string, bool)) (*models.Config, error) {
	config := models.NewDefaultConfig()
	if opts.configFile != "" {
		if err := config.LoadFromFile(opts.configFile); err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
	}
	if err := config.ApplyEnv(lookup); err != nil {
		return nil, err
	}

	if opts.logLevel != "" {
		config.LogLevel = opts.logLevel
	}
	if opts.logFile != "" {
		config.LogFile = opts.logFile
	}
	if opts.noProgress {
		config.ShowProgress = false
	}
	if opts.inputFile != "" {
		config.InputFile = opts.inputFile
	}
	if opts.model != "" {
		config.WhisperModel = opts.model
	}
	if opts.minutes > 0 {
		config.ChunkMinutes = opts.minutes
	}
	if opts.flow != "" {
		config.WatchFlow = opts.flow
	}
	if opts.srt {
		config.ExportSRT = true
	}
	return config, config.Validate()
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		fmt.Println(usage)
		return
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		color.Red("错误: %v", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	switch cmd {
	case "split", "transcribe", "diarize", "clean", "watch", "env", "config":
	default:
		fmt.Println(usage)
		return fmt.Errorf("未知命令: %s", cmd)
	}

	opts := &options{}
	fs := newFlagSet(cmd, opts)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// .env 读取前先按参数或环境变量初始化日志，加载配置后再按最终配置重新初始化
	earlyLevel := opts.logLevel
	if earlyLevel == "" {
		earlyLevel = os.Getenv("LOG_LEVEL")
	}
	if err := utils.InitLogger(earlyLevel, ""); err != nil {
		return err
	}

	printWelcome()

	envResult, err := env.Load(opts.envFile)
	if err != nil {
		return err
	}

	config, err := buildConfig(opts, os.LookupEnv)
	if err != nil {
		return err
	}
	if err := utils.InitLogger(config.LogLevel, config.LogFile); err != nil {
		return err
	}
	config.PrintConfig()

	if cmd == "env" {
		return printEnv(envResult)
	}
	if cmd == "config" {
		if err := config.SaveToFile(opts.outputFile); err != nil {
			return err
		}
		color.Green("配置已写入: %s", opts.outputFile)
		return nil
	}

	pc := controller.NewProcessorController(config, envResult.Token)
	pc.SetupSignalHandlers()
	defer pc.Cleanup()

	switch cmd {
	case "split":
		if !checkDependencies() {
			return errors.New("缺少ffmpeg/ffprobe，无法切分音频")
		}
		input := fs.Arg(0)
		if _, err := pc.SplitAudio(input, opts.outputDir); err != nil {
			return err
		}

	case "transcribe":
		if _, err := pc.TranscribeAudio(opts.inputDir, opts.outputDir); err != nil {
			return err
		}

	case "diarize":
		if opts.inputDir != "" {
			config.InputDir = opts.inputDir
		}
		if opts.outputDir != "" {
			config.OutputDir = opts.outputDir
		}
		if _, err := pc.DiarizeAndTranscribe(); err != nil {
			return err
		}

	case "clean":
		sentences, err := pc.CleanTranscripts(opts.inputDir, opts.outputFile)
		if err != nil {
			return err
		}
		color.Green("已保存 %d 句", len(sentences))
		return nil

	case "watch":
		if opts.inputDir != "" {
			config.InputDir = opts.inputDir
		}
		if err := pc.Watch(); err != nil {
			return err
		}
	}

	pc.PrintSummary()
	return nil
}

func printWelcome() {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   日语音频转写工具 jatranscribe   ")
	color.Cyan("================================")
	fmt.Println()
}

func checkDependencies() bool {
	fmt.Print("检查系统依赖... ")
	if !utils.CheckFFmpeg() {
		color.Red("失败")
		utils.Error("未检测到FFmpeg，请确保ffmpeg和ffprobe已安装并添加到系统路径")
		return false
	}
	color.Green("通过")
	return true
}

func printEnv(res *env.Result) error {
	if res.Path != "" {
		fmt.Printf(".env: %s\n", res.Path)
	}
	if len(res.Missing) > 0 {
		color.Yellow("未设置: %s", strings.Join(res.Missing, ", "))
	}
	if res.Token == "" {
		return env.ErrMissingToken
	}
	color.Green("HF_TOKEN: %s", env.MaskToken(res.Token))
	return nil
}
