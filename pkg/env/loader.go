// Package env loads dotenv files and checks the credentials the
// diarization engine needs.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// TokenVar holds the Hugging Face access token for the pyannote pipeline.
const TokenVar = "HF_TOKEN"

// DefaultPath is the dotenv file looked up in the working directory.
const DefaultPath = ".env"

// RequiredVars are reported when unset after loading.
var RequiredVars = []string{TokenVar}

// ErrMissingToken is returned before any model is invoked when no token is
// available.
var ErrMissingToken = errors.New("Hugging Face token is required: pass it explicitly or set " + TokenVar)

// Result describes what Load found.
type Result struct {
	Path    string   // absolute path of the dotenv file, empty if none was read
	Missing []string // required variables still unset
	Token   string
}

// Load reads path (DefaultPath when empty) into the process environment if
// the file exists. Variables already set in the process win over the file.
// A missing file or missing required variables only produce warnings; a file
// that exists but cannot be parsed is an error.
func Load(path string) (*Result, error) {
	if path == "" {
		path = DefaultPath
	}

	res := &Result{}
	if utils.CheckFileExists(path) {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		res.Path = abs
		utils.Info("已读取.env文件: %s", abs)
	} else {
		utils.Warn("未找到.env文件 (%s)，请直接设置环境变量", path)
	}

	for _, name := range RequiredVars {
		if strings.TrimSpace(os.Getenv(name)) == "" {
			res.Missing = append(res.Missing, name)
		}
	}
	if len(res.Missing) > 0 {
		utils.Warn("以下环境变量未设置: %s，运行可能会出现问题", strings.Join(res.Missing, ", "))
	}

	res.Token = strings.TrimSpace(os.Getenv(TokenVar))
	return res, nil
}

// RequireToken returns explicit when non-empty, otherwise HF_TOKEN from the
// environment, or ErrMissingToken.
func RequireToken(explicit string) (string, error) {
	if token := strings.TrimSpace(explicit); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(os.Getenv(TokenVar)); token != "" {
		return token, nil
	}
	return "", ErrMissingToken
}

// MaskToken keeps the first and last four characters. Tokens of eight
// characters or fewer are masked entirely.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
