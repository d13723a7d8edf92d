package utils

import (
	"fmt"
	"sort"
)

// ToolError 是工具链错误的基础类型，携带操作说明和底层原因
type ToolError struct {
	Message string
	Cause   error
}

// Error 实现error接口
func (e *ToolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *ToolError) Unwrap() error {
	return e.Cause
}

// NewError 创建一个新的ToolError
func NewError(message string, cause error) error {
	return &ToolError{
		Message: message,
		Cause:   cause,
	}
}

// ErrorHandler 执行批处理步骤并记录错误统计。不做重试，失败即返回
type ErrorHandler struct {
	ErrorStats map[string]map[string]int // 操作 -> 错误信息 -> 计数
}

// NewErrorHandler 创建新的错误处理器
func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{
		ErrorStats: make(map[string]map[string]int),
	}
}

// SafeExecute 执行函数，失败时先执行清理再返回包装后的错误
func (h *ErrorHandler) SafeExecute(operation string, fn func() error, cleanup func()) error {
	err := fn()
	if err == nil {
		return nil
	}

	h.updateErrorStats(operation, err.Error())

	if cleanup != nil {
		Debug("操作 %s 失败，执行清理", operation)
		cleanup()
	}

	return NewError(fmt.Sprintf("操作 %s 失败", operation), err)
}

func (h *ErrorHandler) updateErrorStats(operation string, errMsg string) {
	if h.ErrorStats[operation] == nil {
		h.ErrorStats[operation] = make(map[string]int)
	}
	h.ErrorStats[operation][errMsg]++
}

// GetErrorStats 获取错误统计信息
func (h *ErrorHandler) GetErrorStats() map[string]map[string]int {
	return h.ErrorStats
}

// PrintErrorStats 打印错误统计信息
func (h *ErrorHandler) PrintErrorStats() {
	if len(h.ErrorStats) == 0 {
		Debug("没有错误记录")
		return
	}

	operations := make([]string, 0, len(h.ErrorStats))
	for operation := range h.ErrorStats {
		operations = append(operations, operation)
	}
	sort.Strings(operations)

	Info("错误统计:")
	for _, operation := range operations {
		Info("操作: %s", operation)
		for errMsg, count := range h.ErrorStats[operation] {
			Info("  - %s: %d次", errMsg, count)
		}
	}
}
