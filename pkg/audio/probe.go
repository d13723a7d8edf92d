package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// MediaInfo 存储音频文件的基本信息
type MediaInfo struct {
	Path       string  // 文件路径
	Name       string  // 文件名
	Format     string  // 容器格式
	Duration   float64 // 时长(秒)
	SampleRate int     // 采样率(Hz)
	Channels   int     // 声道数
	Bitrate    int     // 比特率(kbps)
	Size       int64   // 文件大小(字节)
}

type ffprobeOutput struct {
	Streams []struct {
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
	} `json:"streams"`
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
}

// ProbeInfo 使用ffprobe读取第一条音轨和容器信息
func ProbeInfo(ctx context.Context, runner utils.CommandRunner, audioPath string) (*MediaInfo, error) {
	if runner == nil {
		runner = utils.ExecRunner{}
	}
	output, err := runner.Run(ctx, "ffprobe", []string{
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "format=format_name,duration,bit_rate:stream=sample_rate,channels",
		"-of", "json",
		audioPath,
	}, nil)
	if err != nil {
		return nil, err
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(output, &parsed); err != nil {
		return nil, fmt.Errorf("解析ffprobe输出失败: %w", err)
	}

	raw := strings.TrimSpace(parsed.Format.Duration)
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("无法解析时长 %q: %w", raw, err)
	}
	if duration < 0 {
		return nil, fmt.Errorf("无效的时长: %v", duration)
	}

	info := &MediaInfo{
		Path:     audioPath,
		Name:     filepath.Base(audioPath),
		Format:   parsed.Format.FormatName,
		Duration: duration,
	}
	if len(parsed.Streams) > 0 {
		info.SampleRate, _ = strconv.Atoi(parsed.Streams[0].SampleRate)
		info.Channels = parsed.Streams[0].Channels
	}
	// 比特率可能是N/A
	if br, err := strconv.Atoi(parsed.Format.BitRate); err == nil {
		info.Bitrate = br / 1000
	}
	if fi, err := os.Stat(audioPath); err == nil {
		info.Size = fi.Size()
	}
	return info, nil
}

// ProbeDuration 使用ffprobe获取音频时长（秒）
func ProbeDuration(ctx context.Context, runner utils.CommandRunner, audioPath string) (float64, error) {
	info, err := ProbeInfo(ctx, runner, audioPath)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
