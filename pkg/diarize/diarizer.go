package diarize

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

//go:embed assets/pyannote_diarize.py
var pyannoteScript []byte

// ErrNoToken 未提供Hugging Face令牌
var ErrNoToken = errors.New("diarize: 缺少Hugging Face令牌")

// Diarizer 话者分离引擎接口
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]models.SpeakerTurn, error)
}

// PyannoteDiarizer 通过内嵌Python辅助脚本运行pyannote管线。
// 令牌只通过子进程环境变量传递，不出现在命令行参数中
type PyannoteDiarizer struct {
	Python   string
	Pipeline string
	Token    string
	Runner   utils.CommandRunner
}

// NewPyannoteDiarizer 创建pyannote话者分离器
func NewPyannoteDiarizer(python, pipeline, token string, runner utils.CommandRunner) *PyannoteDiarizer {
	if python == "" {
		python = "python3"
	}
	if pipeline == "" {
		pipeline = models.DefaultDiarizationPipeline
	}
	if runner == nil {
		runner = utils.ExecRunner{}
	}
	return &PyannoteDiarizer{Python: python, Pipeline: pipeline, Token: token, Runner: runner}
}

type pyannoteOutput struct {
	Turns []models.SpeakerTurn `json:"turns"`
}

// Diarize 实现Diarizer，返回按引擎输出顺序排列的发言区间
func (d *PyannoteDiarizer) Diarize(ctx context.Context, audioPath string) ([]models.SpeakerTurn, error) {
	if d.Token == "" {
		return nil, ErrNoToken
	}

	scriptPath, cleanup, err := utils.WriteTempScript("jt_pyannote", pyannoteScript)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	utils.Debug("加载话者分离管线 %s", d.Pipeline)
	out, err := d.Runner.Run(ctx, d.Python,
		[]string{scriptPath, "--audio", audioPath, "--pipeline", d.Pipeline},
		[]string{"HF_TOKEN=" + d.Token})
	if err != nil {
		return nil, fmt.Errorf("话者分离失败: %w", err)
	}

	var parsed pyannoteOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("解析话者分离输出失败: %w", err)
	}
	utils.Debug("话者分离得到 %d 个发言区间", len(parsed.Turns))
	return parsed.Turns, nil
}
