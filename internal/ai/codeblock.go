package ai

import (
	"regexp"
	"strings"
)

// CodeBlock is a fenced block found in a response.
type CodeBlock struct {
	Language string
	Filename string
	Content  string
}

// fenceStartRegex matches a fence opening: ```lang or ```lang:filename
var fenceStartRegex = regexp.MustCompile("^```([\\w+#.-]*)(?::(.+))?$")

// CodeBlocks returns every closed fenced block in text, in order.
func CodeBlocks(text string) []CodeBlock {
	var (
		blocks  []CodeBlock
		current *CodeBlock
		body    []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if current == nil {
			if m := fenceStartRegex.FindStringSubmatch(trimmed); m != nil {
				current = &CodeBlock{Language: m[1], Filename: strings.TrimSpace(m[2])}
				body = body[:0]
			}
			continue
		}
		if trimmed == "```" {
			current.Content = strings.Join(body, "\n")
			blocks = append(blocks, *current)
			current = nil
			continue
		}
		body = append(body, line)
	}
	return blocks
}

// EditContent returns the text to write for an edit response: the trimmed
// content of the first fenced block, or the whole trimmed response.
func EditContent(response string) string {
	if blocks := CodeBlocks(response); len(blocks) > 0 {
		return strings.TrimSpace(blocks[0].Content)
	}
	return strings.TrimSpace(response)
}
