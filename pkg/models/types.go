package models

import "fmt"

// AudioChunk 表示音频文件中按固定时长切出的一段
type AudioChunk struct {
	Source     string  // 源音频文件路径
	Index      int     // 序号（从0开始）
	Start      float64 // 开始偏移（秒）
	End        float64 // 结束偏移（秒）
	OutputPath string  // 切片输出路径
}

// Duration 返回切片时长（秒）
func (c AudioChunk) Duration() float64 {
	return c.End - c.Start
}

func (c AudioChunk) String() string {
	return fmt.Sprintf("chunk %d: %.3f-%.3f", c.Index+1, c.Start, c.End)
}

// TranscriptionSegment 语音识别引擎输出的一个段落
type TranscriptionSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// SpeakerTurn 话者分离引擎输出的一个发言区间
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// AlignedSegment 带话者信息的识别段落，Speaker为nil表示未知
type AlignedSegment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker *string `json:"speaker"`
	Text    string  `json:"text"`
}

// SpeakerOr 返回话者标签，未知时返回fallback
func (s AlignedSegment) SpeakerOr(fallback string) string {
	if s.Speaker == nil {
		return fallback
	}
	return *s.Speaker
}

// Transcription 一次识别调用的完整结果
type Transcription struct {
	Language string                 `json:"language"`
	Text     string                 `json:"text"`
	Segments []TranscriptionSegment `json:"segments"`
}
