package watcher

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/scanner"
	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// queueSize 待处理文件队列容量
const queueSize = 64

// FolderMonitor 监控文件夹变化。事件循环只负责去抖和入队，不处理文件
type FolderMonitor struct {
	watcher      *fsnotify.Watcher
	folderPath   string
	scanner      *scanner.Scanner
	debounceTime time.Duration
	pendingFiles map[string]*time.Timer
	queue        chan string
	mutex        sync.Mutex
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// NewFolderMonitor 创建新的文件夹监控器
func NewFolderMonitor(folderPath string, extensions []string, debounceTime time.Duration) (*FolderMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	return &FolderMonitor{
		watcher:      watcher,
		folderPath:   folderPath,
		scanner:      scanner.NewScanner(extensions),
		debounceTime: debounceTime,
		pendingFiles: make(map[string]*time.Timer),
		queue:        make(chan string, queueSize),
		stopChan:     make(chan struct{}),
	}, nil
}

// Files 返回去抖后的新文件队列
func (m *FolderMonitor) Files() <-chan string {
	return m.queue
}

// Start 开始监控文件夹
func (m *FolderMonitor) Start() error {
	if err := utils.EnsureDirExists(m.folderPath); err != nil {
		return fmt.Errorf("创建文件夹失败: %w", err)
	}

	if err := m.watcher.Add(m.folderPath); err != nil {
		return fmt.Errorf("添加监控文件夹失败: %w", err)
	}

	go m.watchLoop()

	utils.Info("开始监控文件夹: %s", m.folderPath)
	return nil
}

// Stop 停止监控，可重复调用
func (m *FolderMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		m.watcher.Close()

		m.mutex.Lock()
		for path, timer := range m.pendingFiles {
			timer.Stop()
			delete(m.pendingFiles, path)
		}
		m.mutex.Unlock()

		utils.Info("停止监控文件夹: %s", m.folderPath)
	})
}

func (m *FolderMonitor) watchLoop() {
	for {
		select {
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleFileEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			utils.Error("监控文件夹时出错: %v", err)
		}
	}
}

// 只关心创建和写入；写入期间持续重置定时器，文件稳定后才入队
func (m *FolderMonitor) handleFileEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	filePath := event.Name
	if !m.isTargetFile(filePath) {
		return
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	if timer, exists := m.pendingFiles[filePath]; exists {
		timer.Stop()
	}
	m.pendingFiles[filePath] = time.AfterFunc(m.debounceTime, func() {
		m.enqueue(filePath)
	})

	utils.Debug("检测到文件变化: %s", filePath)
}

func (m *FolderMonitor) isTargetFile(filePath string) bool {
	fileInfo, err := os.Stat(filePath)
	if err != nil || fileInfo.IsDir() {
		return false
	}
	return m.scanner.Match(filePath)
}

func (m *FolderMonitor) enqueue(filePath string) {
	m.mutex.Lock()
	delete(m.pendingFiles, filePath)
	m.mutex.Unlock()

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return
	}

	select {
	case m.queue <- filePath:
		utils.Debug("文件已加入队列: %s", filePath)
	case <-m.stopChan:
	}
}
