package controller

import (
	"context"
	"errors"
	"iter"

	"scribe/internal/folders"
	"scribe/internal/tabs"
)

type fakeTab struct {
	id    tabs.ID
	title string
	text  string
	sets  int
}

type fakeEditor struct {
	tabs    []*fakeTab
	current int
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{current: -1}
}

func (e *fakeEditor) AddTab(id tabs.ID, title, content string) int {
	e.tabs = append(e.tabs, &fakeTab{id: id, title: title, text: content})
	return len(e.tabs) - 1
}

func (e *fakeEditor) RemoveTab(index int) {
	e.tabs = append(e.tabs[:index], e.tabs[index+1:]...)
	if e.current >= len(e.tabs) {
		e.current = len(e.tabs) - 1
	}
}

func (e *fakeEditor) Count() int                { return len(e.tabs) }
func (e *fakeEditor) CurrentIndex() int         { return e.current }
func (e *fakeEditor) SetCurrentIndex(index int) { e.current = index }

func (e *fakeEditor) TabID(index int) (tabs.ID, bool) {
	if index < 0 || index >= len(e.tabs) {
		return "", false
	}
	return e.tabs[index].id, true
}

func (e *fakeEditor) IndexOf(id tabs.ID) int {
	for i, t := range e.tabs {
		if t.id == id {
			return i
		}
	}
	return -1
}

func (e *fakeEditor) SetTabTitle(index int, title string) { e.tabs[index].title = title }
func (e *fakeEditor) Text(index int) string               { return e.tabs[index].text }
func (e *fakeEditor) SetText(index int, text string) {
	e.tabs[index].text = text
	e.tabs[index].sets++
}

func (e *fakeEditor) titles() []string {
	out := make([]string, 0, len(e.tabs))
	for _, t := range e.tabs {
		out = append(out, t.title)
	}
	return out
}

type fakeFolderView struct {
	root      *folders.Node
	populated int
	selected  string
}

func (v *fakeFolderView) Populate(root *folders.Node) {
	v.root = root
	v.populated++
	v.selected = ""
}

func (v *fakeFolderView) SelectPath(path string) bool {
	if v.root == nil || v.root.Find(path) == nil {
		return false
	}
	v.selected = path
	return true
}

func (v *fakeFolderView) CurrentPath() (string, bool) {
	return v.selected, v.selected != ""
}

type fakeDialog struct {
	key    string
	typed  string // replaces key while shown, like user input
	accept bool
	shown  int
}

func (d *fakeDialog) APIKey() string       { return d.key }
func (d *fakeDialog) SetAPIKey(key string) { d.key = key }
func (d *fakeDialog) Show(done func(bool)) {
	d.shown++
	if d.typed != "" {
		d.key = d.typed
	}
	done(d.accept)
}

type call struct {
	model  string
	prompt string
}

type fakeClient struct {
	response string
	chunks   []string
	err      error
	calls    []call
}

func (c *fakeClient) Generate(_ context.Context, model, prompt string) (string, error) {
	c.calls = append(c.calls, call{model, prompt})
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func (c *fakeClient) Stream(_ context.Context, model, prompt string) iter.Seq2[string, error] {
	c.calls = append(c.calls, call{model, prompt})
	return func(yield func(string, error) bool) {
		for _, chunk := range c.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
		if c.err != nil {
			yield("", c.err)
		}
	}
}

var errBoom = errors.New("boom")
