package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ccp-p/asr-media-cli/jatranscribe/pkg/utils"
)

// DefaultMinLength 句子至少要超过的字符数（按rune计）
const DefaultMinLength = 5

// DefaultFillers 整句匹配时丢弃的填充词
var DefaultFillers = []string{
	"うーん", "えーと", "あの", "えっと", "ええと", "んー",
	"まあ", "そうですね", "はい", "ごめんなさい", "すみません",
}

var sentenceTerminators = regexp.MustCompile(`[。?！]`)

// Cleaner 把识别文本拆成句子，过滤填充词和过短句，并按首次出现顺序去重
type Cleaner struct {
	MinLength int
	fillers   map[string]bool
	seen      map[string]bool
	sentences []string
}

// NewCleaner 使用默认规则创建整理器
func NewCleaner() *Cleaner {
	return NewCleanerWith(DefaultMinLength, DefaultFillers)
}

// NewCleanerWith 使用自定义长度阈值和填充词创建整理器
func NewCleanerWith(minLength int, fillers []string) *Cleaner {
	set := make(map[string]bool, len(fillers))
	for _, f := range fillers {
		set[f] = true
	}
	return &Cleaner{
		MinLength: minLength,
		fillers:   set,
		seen:      make(map[string]bool),
	}
}

// Add 处理一段文本，返回新保留的句子数
func (c *Cleaner) Add(text string) int {
	added := 0
	for _, part := range sentenceTerminators.Split(text, -1) {
		sentence := strings.TrimSpace(part)
		if !c.keep(sentence) {
			continue
		}
		c.seen[sentence] = true
		c.sentences = append(c.sentences, sentence)
		added++
	}
	return added
}

func (c *Cleaner) keep(sentence string) bool {
	if sentence == "" || utf8.RuneCountInString(sentence) <= c.MinLength {
		return false
	}
	if c.fillers[sentence] {
		return false
	}
	return !c.seen[sentence]
}

// Sentences 返回已保留的句子（不含句号）
func (c *Cleaner) Sentences() []string {
	out := make([]string, len(c.sentences))
	copy(out, c.sentences)
	return out
}

// Lines 返回加上句号后的输出行
func (c *Cleaner) Lines() []string {
	lines := make([]string, len(c.sentences))
	for i, s := range c.sentences {
		lines[i] = s + "。"
	}
	return lines
}

// WriteFile 每行一句写出结果
func (c *Cleaner) WriteFile(outputFile string) error {
	if err := utils.EnsureDirExists(filepath.Dir(outputFile)); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	var b strings.Builder
	for _, line := range c.Lines() {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if err := os.WriteFile(outputFile, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("写入整理结果失败: %w", err)
	}
	return nil
}

// CleanText 用默认规则整理一段文本，返回输出行
func CleanText(text string) []string {
	c := NewCleaner()
	c.Add(text)
	return c.Lines()
}

// CleanDirectory 按文件名顺序读取目录下所有 .txt 文件，整理后写入outputFile
func (c *Cleaner) CleanDirectory(inputDir, outputFile string) ([]string, error) {
	files, err := listTextFiles(inputDir)
	if err != nil {
		return nil, err
	}

	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, utils.NewError(fmt.Sprintf("读取识别文本失败 %s", path), err)
		}
		added := c.Add(string(content))
		utils.Debug("%s: 新增 %d 句", filepath.Base(path), added)
	}

	if err := c.WriteFile(outputFile); err != nil {
		return nil, err
	}

	utils.Info("整理完成，共保存 %d 句: %s", len(c.sentences), outputFile)
	return c.Sentences(), nil
}

func listTextFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, utils.NewError(fmt.Sprintf("读取目录失败 %s", dir), err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
