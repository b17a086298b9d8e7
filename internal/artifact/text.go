package artifact

import (
	"fmt"
	"regexp"
	"strings"
)

// Display limits.
const (
	SnippetMaxLines   = 20
	snippetKeepLines  = 10
	DefaultTrimLength = 5000
	DefaultTrimKeep   = 2500
)

var fencedBlock = regexp.MustCompile("(?s)```[ \\t]*([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n(.*?)```")

// ExtractCode returns the code carried by a model response.
//
// Fenced blocks are concatenated in order, separated by a blank line. A
// response without fences is treated as bare code.
func ExtractCode(text string) string {
	matches := fencedBlock.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(text)
	}
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		if block := strings.TrimSpace(m[2]); block != "" {
			blocks = append(blocks, block)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// WrapCode wraps code in a python fenced block.
func WrapCode(code string) string {
	return WrapCodeAs("python", code)
}

// WrapCodeAs wraps code in a fenced block tagged with lang.
func WrapCodeAs(lang, code string) string {
	return fmt.Sprintf("```%s\n%s\n```", lang, code)
}

// FormatSnippet shortens code for display. Code longer than SnippetMaxLines
// keeps its first and last ten lines around an omission marker. Empty code
// yields "".
func FormatSnippet(code string) string {
	if code == "" {
		return ""
	}
	lines := strings.Split(code, "\n")
	if len(lines) <= SnippetMaxLines {
		return code
	}
	omitted := len(lines) - 2*snippetKeepLines
	head := strings.Join(lines[:snippetKeepLines], "\n")
	tail := strings.Join(lines[len(lines)-snippetKeepLines:], "\n")
	return fmt.Sprintf("%s\n# ... (%d additional lines omitted) ...\n%s", head, omitted, tail)
}

// TrimLongString keeps the first and last keep bytes of s when it exceeds
// threshold bytes. Cuts are moved back to rune boundaries.
func TrimLongString(s string, threshold, keep int) string {
	if len(s) <= threshold || keep*2 >= len(s) {
		return s
	}
	head := s[:runeStart(s, keep)]
	tail := s[runeStart(s, len(s)-keep):]
	omitted := len(s) - len(head) - len(tail)
	return fmt.Sprintf("%s\n ... [%d characters omitted] ... \n%s", head, omitted, tail)
}

func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !isRuneStart(s[i]) {
		i--
	}
	return i
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
