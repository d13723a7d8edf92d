package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRunner 执行外部程序并返回标准输出。env为nil时继承当前进程环境，
// 否则追加到当前环境之后
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, env []string) ([]byte, error)
}

// ExecRunner 基于os/exec的CommandRunner实现
type ExecRunner struct{}

// Run 实现CommandRunner。失败时错误信息中带上子进程的stderr
func (ExecRunner) Run(ctx context.Context, name string, args []string, env []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	Debug("执行命令: %s %s", name, strings.Join(args, " "))
	out, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s 被中断: %w", name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.Error()
			}
			return nil, NewError(fmt.Sprintf("%s 执行失败", name), errors.New(msg))
		}
		return nil, NewError(fmt.Sprintf("无法启动 %s", name), err)
	}
	return out, nil
}
