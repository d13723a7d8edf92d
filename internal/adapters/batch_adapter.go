package adapters

import (
	"context"
	"sync"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/models"
)

// MediaProcessor 是监听模式下处理单个音频文件的接口
type MediaProcessor interface {
	ProcessFile(ctx context.Context, filePath string) error
	IsProcessed(filePath string) bool
}

// FileFlow 单文件处理流程，例如识别或话者分离
type FileFlow func(ctx context.Context, filePath string) (*models.Result, error)

// FlowAdapter 把单文件流程适配为MediaProcessor，并记住处理成功的文件
type FlowAdapter struct {
	flow      FileFlow
	processed map[string]bool
	results   []*models.Result
	mutex     sync.Mutex
}

// NewFlowAdapter 创建流程适配器
func NewFlowAdapter(flow FileFlow) *FlowAdapter {
	return &FlowAdapter{
		flow:      flow,
		processed: make(map[string]bool),
	}
}

// ProcessFile 执行流程，成功后标记为已处理；失败的文件下次仍会重新处理
func (a *FlowAdapter) ProcessFile(ctx context.Context, filePath string) error {
	result, err := a.flow(ctx, filePath)
	if err != nil {
		return err
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.processed[filePath] = true
	if result != nil {
		a.results = append(a.results, result)
	}
	return nil
}

// IsProcessed 检查文件是否已处理
func (a *FlowAdapter) IsProcessed(filePath string) bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.processed[filePath]
}

// Results 返回已完成文件的处理结果
func (a *FlowAdapter) Results() []*models.Result {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	out := make([]*models.Result, len(a.results))
	copy(out, a.results)
	return out
}
