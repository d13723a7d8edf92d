package models

// Result 单个文件的处理结果统计
type Result struct {
	FilePath      string            `json:"file_path"`       // 处理的文件路径
	Operation     string            `json:"operation"`       // 执行的操作
	OutputFiles   map[string]string `json:"output_files"`    // 输出文件路径
	SegmentCount  int               `json:"segment_count"`   // 识别的文本段数
	SpeakerCount  int               `json:"speaker_count"`   // 识别出的话者数
	ProcessTimeMs int64             `json:"process_time_ms"` // 处理时间（毫秒）
}
