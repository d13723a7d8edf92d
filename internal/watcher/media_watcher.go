package watcher

import (
	"context"
	"time"

	"github.com/ccp-p/asr-media-cli/jatranscribe/internal/adapters"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// MediaWatcher 把文件夹监控和处理流程连起来，所有文件在调用Run的协程上逐个处理
type MediaWatcher struct {
	folder     string
	extensions []string
	debounce   time.Duration
	processor  adapters.MediaProcessor
}

// NewMediaWatcher 创建媒体文件监控器
func NewMediaWatcher(folder string, extensions []string, debounce time.Duration, processor adapters.MediaProcessor) *MediaWatcher {
	return &MediaWatcher{
		folder:     folder,
		extensions: extensions,
		debounce:   debounce,
		processor:  processor,
	}
}

// Run 先处理目录中已有但未处理的文件，然后监听新文件，直到ctx取消。
// 单个文件失败只记录日志，不会停止监听
func (w *MediaWatcher) Run(ctx context.Context) error {
	monitor, err := NewFolderMonitor(w.folder, w.extensions, w.debounce)
	if err != nil {
		return err
	}
	if err := monitor.Start(); err != nil {
		return err
	}
	defer monitor.Stop()

	s := scanner.NewScanner(w.extensions)
	existing, err := s.ScanDirectory(w.folder)
	if err != nil {
		return err
	}
	for _, f := range existing {
		if ctx.Err() != nil {
			return nil
		}
		w.handle(ctx, f.Path)
	}

	utils.Info("等待新的音频文件... (Ctrl+C 退出)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case path := <-monitor.Files():
			w.handle(ctx, path)
		}
	}
}

func (w *MediaWatcher) handle(ctx context.Context, path string) {
	if w.processor.IsProcessed(path) {
		utils.Debug("跳过已处理文件: %s", path)
		return
	}
	if err := w.processor.ProcessFile(ctx, path); err != nil {
		utils.Error("处理文件失败 %s: %v", path, err)
	}
}
