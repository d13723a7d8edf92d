package asr

import (
	"context"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
)

// Transcriber 语音识别引擎接口，每次调用处理一个音频文件
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*models.Transcription, error)
}

// ProgressCallback 批量识别时的进度回调
type ProgressCallback func(current, total int, filename string)
