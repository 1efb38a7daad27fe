package controller

import (
	"log/slog"
	"path/filepath"

	"scribe/internal/apperr"
	"scribe/internal/fileutil"
	"scribe/internal/folders"
	"scribe/internal/logging"
)

// FolderController drives the folder tree. Every mutation rebuilds and
// repopulates the whole tree, so a refresh costs O(tree size).
type FolderController struct {
	model   *folders.Model
	builder *folders.TreeBuilder
	view    FolderView
	logger  *slog.Logger

	root string
	tree *folders.Node
}

// NewFolderController creates a folder controller.
func NewFolderController(model *folders.Model, builder *folders.TreeBuilder, view FolderView, logger *slog.Logger) *FolderController {
	if logger == nil {
		logger = logging.Discard()
	}
	if builder == nil {
		builder = folders.NewTreeBuilder(nil)
	}
	return &FolderController{model: model, builder: builder, view: view, logger: logger}
}

// Root returns the open folder, or "" before LoadInitialTree.
func (c *FolderController) Root() string {
	return c.root
}

// Tree returns the last built tree.
func (c *FolderController) Tree() *folders.Node {
	return c.tree
}

// LoadInitialTree opens root, which must be an existing directory.
func (c *FolderController) LoadInitialTree(root string) error {
	resolved := fileutil.Canonical(root)
	if !c.model.Exists(resolved) {
		c.logger.Error("root directory does not exist", "path", resolved)
		return apperr.FileOp("root directory does not exist", resolved, nil)
	}
	if !c.model.IsDir(resolved) {
		c.logger.Error("root is not a directory", "path", resolved)
		return apperr.FileOp("root is not a directory", resolved, nil)
	}

	tree, err := c.builder.Build(resolved)
	if err != nil {
		return err
	}
	c.root = resolved
	c.tree = tree
	c.view.Populate(tree)
	c.view.SelectPath(resolved)
	c.logger.Info("folder tree loaded", "root", resolved)
	return nil
}

// HandleCreate creates a file or directory and selects it.
func (c *FolderController) HandleCreate(path string, isDir bool) error {
	if err := c.requireRoot(); err != nil {
		return err
	}
	target := fileutil.Canonical(path)
	if err := c.model.Create(target, isDir); err != nil {
		return err
	}
	return c.reload(target)
}

// HandleDelete deletes an item and selects its parent.
func (c *FolderController) HandleDelete(path string) error {
	if err := c.requireRoot(); err != nil {
		return err
	}
	target := fileutil.Canonical(path)
	if err := c.model.Delete(target); err != nil {
		return err
	}

	parent := filepath.Dir(target)
	if target == c.root || !fileutil.IsWithin(c.root, parent) {
		parent = c.root
	}
	return c.reload(parent)
}

// HandleRename renames an item inside its directory and selects the new path.
func (c *FolderController) HandleRename(oldPath, newPath string) error {
	if err := c.requireRoot(); err != nil {
		return err
	}
	target := fileutil.Canonical(newPath)
	if err := c.model.Rename(oldPath, target); err != nil {
		return err
	}
	return c.reload(target)
}

// Refresh rebuilds the tree and keeps the current selection when it still exists.
func (c *FolderController) Refresh() error {
	if err := c.requireRoot(); err != nil {
		return err
	}
	selected, _ := c.view.CurrentPath()
	return c.reload(selected)
}

func (c *FolderController) reload(selectPath string) error {
	if !c.model.IsDir(c.root) {
		return apperr.FileOp("root directory is gone", c.root, nil)
	}
	tree, err := c.builder.Build(c.root)
	if err != nil {
		return err
	}
	c.tree = tree
	c.view.Populate(tree)

	for _, candidate := range c.selectionCandidates(selectPath) {
		if c.view.SelectPath(candidate) {
			return nil
		}
	}
	c.logger.Warn("could not restore tree selection", "path", selectPath)
	return nil
}

// selectionCandidates lists path, then its ancestors inside the root, then the root.
func (c *FolderController) selectionCandidates(path string) []string {
	var out []string
	if path != "" && fileutil.IsWithin(c.root, path) {
		for p := path; p != c.root; p = filepath.Dir(p) {
			out = append(out, p)
			if filepath.Dir(p) == p {
				break
			}
		}
	}
	return append(out, c.root)
}

func (c *FolderController) requireRoot() error {
	if c.root == "" {
		return apperr.Validation("no folder is open")
	}
	return nil
}
