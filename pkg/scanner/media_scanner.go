package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// AudioFile 表示目录中的一个音频文件
type AudioFile struct {
	Path    string    // 文件路径
	Name    string    // 文件名
	Ext     string    // 扩展名（小写）
	Size    int64     // 文件大小（字节）
	ModTime time.Time // 修改时间
}

// Scanner 按扩展名扫描音频文件
type Scanner struct {
	Extensions []string
}

// NewScanner 创建扫描器，extensions为空时只认.mp3
func NewScanner(extensions []string) *Scanner {
	if len(extensions) == 0 {
		extensions = []string{".mp3"}
	}
	return &Scanner{Extensions: extensions}
}

// Match 判断文件名是否为支持的音频，扩展名不区分大小写
func (s *Scanner) Match(name string) bool {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	return utils.HasExtension(name, s.Extensions)
}

// ScanDirectory 扫描目录（非递归），结果按文件名排序
func (s *Scanner) ScanDirectory(dir string) ([]AudioFile, error) {
	logrus.Debugf("开始扫描目录: %s", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []AudioFile
	for _, entry := range entries {
		if entry.IsDir() || !s.Match(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logrus.Warnf("获取文件信息失败: %v", err)
			continue
		}

		files = append(files, AudioFile{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Ext:     strings.ToLower(filepath.Ext(entry.Name())),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	// os.ReadDir已按文件名排序，这里显式保证
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	logrus.Debugf("扫描完成，共找到 %d 个音频文件", len(files))
	return files, nil
}

// FilterNewFiles 根据已处理记录过滤出新文件
func (s *Scanner) FilterNewFiles(files []AudioFile, processedPaths map[string]bool) []AudioFile {
	var newFiles []AudioFile
	for _, file := range files {
		if !processedPaths[file.Path] {
			newFiles = append(newFiles, file)
		}
	}

	logrus.Debugf("过滤后剩余 %d 个新文件需要处理", len(newFiles))
	return newFiles
}
