package controller

import (
	"log/slog"

	"scribe/internal/apperr"
	"scribe/internal/logging"
	"scribe/internal/tabs"
)

// TabController keeps the tab registry and the tab strip in step.
type TabController struct {
	state  *tabs.State
	view   EditorView
	logger *slog.Logger
}

// NewTabController creates a tab controller.
func NewTabController(state *tabs.State, view EditorView, logger *slog.Logger) *TabController {
	if logger == nil {
		logger = logging.Discard()
	}
	return &TabController{state: state, view: view, logger: logger}
}

// State returns the tab registry.
func (c *TabController) State() *tabs.State {
	return c.state
}

// CreateTab registers path, adds a clean tab showing content and focuses it.
func (c *TabController) CreateTab(path, content string) (tabs.ID, error) {
	id, err := c.state.Add(path)
	if err != nil {
		return "", err
	}
	canonical, _ := c.state.FilePath(id)

	index := c.view.AddTab(id, TabTitle(canonical, false), content)
	c.view.SetCurrentIndex(index)
	c.logger.Info("tab created", "id", id, "index", index, "path", canonical)
	return id, nil
}

// CurrentID returns the id of the focused tab.
func (c *TabController) CurrentID() (tabs.ID, bool) {
	index := c.view.CurrentIndex()
	if index < 0 {
		return "", false
	}
	return c.view.TabID(index)
}

// MarkCurrentDirty sets the dirty flag of the focused tab. Without tabs it does nothing.
func (c *TabController) MarkCurrentDirty(dirty bool) error {
	id, ok := c.CurrentID()
	if !ok {
		c.logger.Warn("no active tab to mark dirty")
		return nil
	}
	return c.SetDirty(id, dirty)
}

// SetDirty sets the dirty flag of a tab and refreshes its title.
func (c *TabController) SetDirty(id tabs.ID, dirty bool) error {
	index := c.view.IndexOf(id)
	if index < 0 {
		return apperr.NotFound("tab in view", string(id))
	}
	if err := c.state.MarkDirty(id, dirty); err != nil {
		return err
	}
	path, err := c.state.FilePath(id)
	if err != nil {
		return err
	}
	c.view.SetTabTitle(index, TabTitle(path, dirty))
	c.logger.Debug("tab dirty state updated", "id", id, "dirty", dirty)
	return nil
}

// CloseTab removes a tab from the view and the registry.
func (c *TabController) CloseTab(id tabs.ID) error {
	index := c.view.IndexOf(id)
	if index < 0 {
		c.logger.Error("tab not found in view", "id", id)
		return apperr.NotFound("tab in view", string(id))
	}
	c.view.RemoveTab(index)
	if err := c.state.Close(id); err != nil {
		return err
	}
	c.logger.Info("tab closed", "id", id)
	return nil
}

// CloseCurrentTab closes the focused tab and returns its path, or "" without tabs.
func (c *TabController) CloseCurrentTab() (string, error) {
	id, ok := c.CurrentID()
	if !ok {
		return "", nil
	}
	path, err := c.state.FilePath(id)
	if err != nil {
		return "", err
	}
	if err := c.CloseTab(id); err != nil {
		return "", err
	}
	return path, nil
}
