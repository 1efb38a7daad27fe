package controller

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
	"scribe/internal/files"
	"scribe/internal/logging"
	"scribe/internal/tabs"
)

// FileController opens and saves the documents shown in tabs.
type FileController struct {
	files    *files.Model
	tabs     *TabController
	view     EditorView
	encoding string
	logger   *slog.Logger

	mu         sync.Mutex
	encodings  map[tabs.ID]string
	onFallback func(path, from string)
}

// NewFileController creates a file controller. encoding is tried first when
// opening files; files are saved back in the encoding they were read with.
func NewFileController(model *files.Model, tabCtl *TabController, view EditorView, encoding string, logger *slog.Logger) *FileController {
	if logger == nil {
		logger = logging.Discard()
	}
	return &FileController{
		files:     model,
		tabs:      tabCtl,
		view:      view,
		encoding:  encoding,
		logger:    logger,
		encodings: make(map[tabs.ID]string),
	}
}

// OnEncodingFallback sets fn to be called when a file is saved as utf-8
// because its text does not fit the encoding it was read with.
func (c *FileController) OnEncodingFallback(fn func(path, from string)) {
	c.mu.Lock()
	c.onFallback = fn
	c.mu.Unlock()
}

// OpenFile loads path into a new tab and returns its index. A file that is
// already open is focused instead.
func (c *FileController) OpenFile(path string) (int, error) {
	canonical := fileutil.Canonical(path)
	if id, ok := c.tabs.State().FindByPath(canonical); ok {
		if index := c.view.IndexOf(id); index >= 0 {
			c.view.SetCurrentIndex(index)
			c.logger.Debug("file already open", "path", canonical, "index", index)
			return index, nil
		}
	}

	c.logger.Info("opening file", "path", canonical)
	content, enc, err := c.files.LoadDetect(canonical, c.encoding)
	if err != nil {
		return -1, err
	}

	id, err := c.tabs.CreateTab(canonical, content)
	if err != nil {
		return -1, err
	}
	c.setEncoding(id, enc)
	return c.view.IndexOf(id), nil
}

// CreateNewFile creates an empty file at path if it does not exist and opens it.
func (c *FileController) CreateNewFile(path string) (int, error) {
	canonical := fileutil.Canonical(path)
	if _, err := os.Stat(canonical); errors.Is(err, os.ErrNotExist) {
		if err := c.files.Save(canonical, "", c.defaultEncoding()); err != nil {
			return -1, err
		}
		c.logger.Info("new file created", "path", canonical)
	}
	return c.OpenFile(canonical)
}

// SaveCurrentFile writes the focused tab to its path. ok is false when no tab is open.
func (c *FileController) SaveCurrentFile() (path string, ok bool, err error) {
	id, index, ok := c.current()
	if !ok {
		c.logger.Warn("no active editor, save skipped")
		return "", false, nil
	}

	path, err = c.tabs.State().FilePath(id)
	if err != nil {
		return "", true, err
	}
	c.logger.Info("saving file", "path", path)
	if err := c.save(id, path, c.view.Text(index)); err != nil {
		return "", true, err
	}
	if err := c.tabs.SetDirty(id, false); err != nil {
		return "", true, err
	}
	return path, true, nil
}

// SaveFileAs writes the focused tab to a new path and points the tab at it.
func (c *FileController) SaveFileAs(path string) (string, bool, error) {
	id, index, ok := c.current()
	if !ok {
		c.logger.Warn("no active editor, save as skipped")
		return "", false, nil
	}

	target := fileutil.Canonical(path)
	c.logger.Info("saving file as", "path", target)
	if err := c.save(id, target, c.view.Text(index)); err != nil {
		return "", true, err
	}
	if err := c.tabs.State().UpdatePath(id, target); err != nil {
		return "", true, err
	}
	if err := c.tabs.SetDirty(id, false); err != nil {
		return "", true, err
	}
	return target, true, nil
}

// save writes text in the tab's encoding. Text that encoding cannot hold is
// written as utf-8 and the tab keeps utf-8 from then on.
func (c *FileController) save(id tabs.ID, path, text string) error {
	enc := c.encodingFor(id)
	err := c.files.Save(path, text, enc)
	if !errors.Is(err, fileutil.ErrUnencodable) {
		return err
	}

	c.logger.Warn("text does not fit file encoding, saving as utf-8", "path", path, "encoding", enc, "error", err)
	if err := c.files.Save(path, text, fileutil.EncodingUTF8); err != nil {
		return err
	}
	c.setEncoding(id, fileutil.EncodingUTF8)

	c.mu.Lock()
	fn := c.onFallback
	c.mu.Unlock()
	if fn != nil {
		fn(path, enc)
	}
	return nil
}

// OnEditorTextChanged marks a tab dirty on its first edit after load or save.
func (c *FileController) OnEditorTextChanged(id tabs.ID) {
	dirty, err := c.tabs.State().IsDirty(id)
	if err != nil {
		c.logger.Warn("text change from unknown tab", "id", id)
		return
	}
	if dirty {
		return
	}
	if err := c.tabs.SetDirty(id, true); err != nil {
		c.logger.Warn("failed to mark tab dirty", "id", id, "error", err)
		return
	}
	c.logger.Info("tab marked dirty", "id", id)
}

// CloseCurrentTab closes the focused tab and returns its path, or "" without tabs.
// A dirty tab is only closed when discard is set.
func (c *FileController) CloseCurrentTab(discard bool) (string, error) {
	id, _, ok := c.current()
	if !ok {
		return "", nil
	}
	dirty, err := c.tabs.State().IsDirty(id)
	if err != nil {
		return "", err
	}
	if dirty && !discard {
		path, _ := c.tabs.State().FilePath(id)
		return "", &apperr.Error{Kind: apperr.KindValidation, Msg: "unsaved changes", Path: path}
	}

	path, err := c.tabs.CloseCurrentTab()
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	delete(c.encodings, id)
	c.mu.Unlock()
	return path, nil
}

// ReloadPath re-reads path into every clean tab showing it and returns how
// many tabs were refreshed. Dirty tabs keep their buffer and tabs already
// showing the file's content are left alone.
func (c *FileController) ReloadPath(path string) (int, error) {
	ids := c.tabs.State().FindAllByPath(path)
	if len(ids) == 0 {
		return 0, nil
	}

	content, enc, err := c.files.LoadDetect(path, c.encoding)
	if err != nil {
		return 0, err
	}

	reloaded := 0
	for _, id := range ids {
		index := c.view.IndexOf(id)
		if index < 0 {
			continue
		}
		if dirty, _ := c.tabs.State().IsDirty(id); dirty {
			c.logger.Warn("tab has unsaved changes, not reloaded", "id", id, "path", path)
			continue
		}
		if c.view.Text(index) == content {
			c.setEncoding(id, enc)
			continue
		}
		c.view.SetText(index, content)
		c.setEncoding(id, enc)
		reloaded++
	}
	return reloaded, nil
}

// CurrentPath returns the file of the focused tab.
func (c *FileController) CurrentPath() (string, bool) {
	id, _, ok := c.current()
	if !ok {
		return "", false
	}
	path, err := c.tabs.State().FilePath(id)
	return path, err == nil
}

// OpenFiles returns every file read or written in this session.
func (c *FileController) OpenFiles() []string {
	return c.files.OpenFiles()
}

func (c *FileController) current() (tabs.ID, int, bool) {
	index := c.view.CurrentIndex()
	if index < 0 {
		return "", -1, false
	}
	id, ok := c.view.TabID(index)
	return id, index, ok
}

func (c *FileController) setEncoding(id tabs.ID, enc string) {
	c.mu.Lock()
	c.encodings[id] = enc
	c.mu.Unlock()
}

func (c *FileController) encodingFor(id tabs.ID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodings[id]; ok {
		return enc
	}
	return c.defaultEncoding()
}

func (c *FileController) defaultEncoding() string {
	if c.encoding == "" {
		return fileutil.EncodingUTF8
	}
	return c.encoding
}
