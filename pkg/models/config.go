package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Language 识别语言固定为日语
const Language = "ja"

// DefaultDiarizationPipeline 默认的pyannote话者分离管线
const DefaultDiarizationPipeline = "pyannote/speaker-diarization-3.1"

// 支持的Whisper模型
var whisperModels = map[string]bool{
	"tiny": true, "base": true, "small": true, "medium": true,
	"large": true, "large-v1": true, "large-v2": true, "large-v3": true, "turbo": true,
}

// Config 表示应用程序的配置
type Config struct {
	InputFile           string   `json:"input_file" yaml:"input_file"`                     // 单文件模式的音频路径
	InputDir            string   `json:"input_dir" yaml:"input_dir"`                       // 切片音频所在目录
	TranscriptDir       string   `json:"transcript_dir" yaml:"transcript_dir"`             // 纯文本识别结果目录
	OutputDir           string   `json:"output_dir" yaml:"output_dir"`                     // 话者分离结果目录
	CleanedFile         string   `json:"cleaned_file" yaml:"cleaned_file"`                 // 整理后的文本文件
	ChunkMinutes        int      `json:"chunk_minutes" yaml:"chunk_minutes"`               // 切片时长（分钟）
	WhisperModel        string   `json:"whisper_model" yaml:"whisper_model"`               // Whisper模型名
	DiarizationPipeline string   `json:"diarization_pipeline" yaml:"diarization_pipeline"` // pyannote管线名
	PythonPath          string   `json:"python_path" yaml:"python_path"`                   // Python解释器
	AudioExtensions     []string `json:"audio_extensions" yaml:"audio_extensions"`         // 识别的音频扩展名
	ExportSRT           bool     `json:"export_srt" yaml:"export_srt"`                     // 是否导出SRT字幕文件
	ShowProgress        bool     `json:"show_progress" yaml:"show_progress"`               // 显示进度条
	WatchFlow           string   `json:"watch_flow" yaml:"watch_flow"`                     // 监听模式下执行的流程 (transcribe, diarize)
	WatchDebounce       float64  `json:"watch_debounce" yaml:"watch_debounce"`             // 监听去抖时间（秒）
	LogLevel            string   `json:"log_level" yaml:"log_level"`                       // 日志级别
	LogFile             string   `json:"log_file" yaml:"log_file"`                         // 日志文件
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		InputFile:           "",
		InputDir:            "split_audio",
		TranscriptDir:       "transcripts",
		OutputDir:           "diarized_transcripts",
		CleanedFile:         "cleaned_transcript.txt",
		ChunkMinutes:        5,
		WhisperModel:        "medium",
		DiarizationPipeline: DefaultDiarizationPipeline,
		PythonPath:          "python3",
		AudioExtensions:     []string{".mp3"},
		ExportSRT:           false,
		ShowProgress:        true,
		WatchFlow:           "transcribe",
		WatchDebounce:       5.0,
		LogLevel:            "INFO",
		LogFile:             "",
	}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return &ConfigValidationError{"InputDir", "不能为空"}
	}
	if c.TranscriptDir == "" {
		return &ConfigValidationError{"TranscriptDir", "不能为空"}
	}
	if c.OutputDir == "" {
		return &ConfigValidationError{"OutputDir", "不能为空"}
	}
	if c.ChunkMinutes < 1 || c.ChunkMinutes > 180 {
		return &ConfigValidationError{"ChunkMinutes", "必须在1-180分钟之间"}
	}
	if !whisperModels[c.WhisperModel] {
		return &ConfigValidationError{"WhisperModel", fmt.Sprintf("不支持的模型: %s", c.WhisperModel)}
	}
	if c.DiarizationPipeline == "" {
		return &ConfigValidationError{"DiarizationPipeline", "不能为空"}
	}
	if c.PythonPath == "" {
		return &ConfigValidationError{"PythonPath", "不能为空"}
	}
	if len(c.AudioExtensions) == 0 {
		return &ConfigValidationError{"AudioExtensions", "至少需要一个扩展名"}
	}
	for _, ext := range c.AudioExtensions {
		if !strings.HasPrefix(ext, ".") {
			return &ConfigValidationError{"AudioExtensions", fmt.Sprintf("扩展名必须以.开头: %s", ext)}
		}
	}
	if c.WatchFlow != "transcribe" && c.WatchFlow != "diarize" {
		return &ConfigValidationError{"WatchFlow", "必须是 transcribe 或 diarize"}
	}
	if c.WatchDebounce < 0.1 || c.WatchDebounce > 60.0 {
		return &ConfigValidationError{"WatchDebounce", "必须在0.1-60.0秒之间"}
	}
	return nil
}

// LoadFromFile 从文件加载配置，.yaml/.yml 按YAML解析，其余按JSON解析
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("读取配置文件失败: %v", err)
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		logrus.Errorf("解析配置文件失败: %v", err)
		return err
	}

	if err := c.Validate(); err != nil {
		logrus.Errorf("配置验证失败: %v", err)
		return err
	}

	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		logrus.Errorf("创建目录失败: %v", err)
		return err
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		logrus.Errorf("写入配置文件失败: %v", err)
		return err
	}

	return nil
}

// ApplyEnv 用环境变量覆盖配置。lookup为nil时使用os.LookupEnv
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	overrideString(lookup, "INPUT_FILE", &c.InputFile)
	overrideString(lookup, "INPUT_DIR", &c.InputDir)
	overrideString(lookup, "TRANSCRIPT_DIR", &c.TranscriptDir)
	overrideString(lookup, "OUTPUT_DIR", &c.OutputDir)
	overrideString(lookup, "CLEANED_FILE", &c.CleanedFile)
	overrideString(lookup, "WHISPER_MODEL", &c.WhisperModel)
	overrideString(lookup, "DIARIZATION_PIPELINE", &c.DiarizationPipeline)
	overrideString(lookup, "JT_PYTHON", &c.PythonPath)
	overrideString(lookup, "LOG_LEVEL", &c.LogLevel)
	overrideString(lookup, "LOG_FILE", &c.LogFile)

	if raw, ok := lookupTrimmed(lookup, "CHUNK_MINUTES"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return &ConfigValidationError{"ChunkMinutes", fmt.Sprintf("无法解析 CHUNK_MINUTES=%q", raw)}
		}
		c.ChunkMinutes = n
	}
	if raw, ok := lookupTrimmed(lookup, "EXPORT_SRT"); ok {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return &ConfigValidationError{"ExportSRT", fmt.Sprintf("无法解析 EXPORT_SRT=%q", raw)}
		}
		c.ExportSRT = b
	}

	return c.Validate()
}

// PrintConfig 打印当前配置
func (c *Config) PrintConfig() {
	bytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		logrus.Errorf("序列化配置失败: %v", err)
		return
	}
	logrus.Debugf("当前配置:\n%s", string(bytes))
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if value, ok := lookupTrimmed(lookup, key); ok {
		*target = value
	}
}

func lookupTrimmed(lookup func(string) (string, bool), key string) (string, bool) {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}
