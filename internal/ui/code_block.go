package ui

import (
	"fmt"

	"github.com/atotto/clipboard"

	"scribe/internal/ai"
)

// clipboardWrite is replaced in tests.
var clipboardWrite = clipboard.WriteAll

// CodeBlockRegistry remembers the code blocks of assistant replies so they
// can be copied.
type CodeBlockRegistry struct {
	blocks        []ai.CodeBlock
	selectedIndex int
}

// NewCodeBlockRegistry creates an empty registry.
func NewCodeBlockRegistry() *CodeBlockRegistry {
	return &CodeBlockRegistry{selectedIndex: -1}
}

// Add registers blocks and selects the last one.
func (r *CodeBlockRegistry) Add(blocks ...ai.CodeBlock) {
	if len(blocks) == 0 {
		return
	}
	r.blocks = append(r.blocks, blocks...)
	r.selectedIndex = len(r.blocks) - 1
}

// SelectPrev moves the selection to the previous block.
func (r *CodeBlockRegistry) SelectPrev() bool {
	if r.selectedIndex > 0 {
		r.selectedIndex--
		return true
	}
	return false
}

// SelectNext moves the selection to the next block.
func (r *CodeBlockRegistry) SelectNext() bool {
	if r.selectedIndex >= 0 && r.selectedIndex < len(r.blocks)-1 {
		r.selectedIndex++
		return true
	}
	return false
}

// SelectLast selects the newest block.
func (r *CodeBlockRegistry) SelectLast() {
	r.selectedIndex = len(r.blocks) - 1
}

// Selected returns the selected block, if any.
func (r *CodeBlockRegistry) Selected() (ai.CodeBlock, bool) {
	if r.selectedIndex < 0 || r.selectedIndex >= len(r.blocks) {
		return ai.CodeBlock{}, false
	}
	return r.blocks[r.selectedIndex], true
}

// Count returns the number of registered blocks.
func (r *CodeBlockRegistry) Count() int {
	return len(r.blocks)
}

// Clear drops all blocks.
func (r *CodeBlockRegistry) Clear() {
	r.blocks = nil
	r.selectedIndex = -1
}

// CopySelected copies the selected block to the system clipboard.
func (r *CodeBlockRegistry) CopySelected() (ai.CodeBlock, error) {
	block, ok := r.Selected()
	if !ok {
		return ai.CodeBlock{}, fmt.Errorf("no code block to copy")
	}
	if err := clipboardWrite(block.Content); err != nil {
		return ai.CodeBlock{}, fmt.Errorf("clipboard: %w", err)
	}
	return block, nil
}
