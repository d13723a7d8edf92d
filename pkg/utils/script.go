package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WriteTempScript 把内嵌的辅助脚本写到临时目录，返回路径和删除函数。
// 文件名带uuid，同一目录下并存的多个进程互不覆盖
func WriteTempScript(prefix string, content []byte) (string, func(), error) {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("%s_%s.py", prefix, uuid.NewString()))
	if err := os.WriteFile(path, content, 0o700); err != nil {
		return "", func() {}, fmt.Errorf("写入辅助脚本失败: %w", err)
	}
	return path, func() { os.Remove(path) }, nil
}
