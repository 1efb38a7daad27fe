package controller

import (
	"log/slog"
	"strings"

	"scribe/internal/logging"
	"scribe/internal/settings"
)

// SettingsController moves settings between the model and the dialog.
type SettingsController struct {
	model   *settings.Model
	factory DialogFactory
	logger  *slog.Logger
}

// NewSettingsController creates a settings controller.
func NewSettingsController(model *settings.Model, factory DialogFactory, logger *slog.Logger) *SettingsController {
	if logger == nil {
		logger = logging.Discard()
	}
	return &SettingsController{model: model, factory: factory, logger: logger}
}

// Model returns the settings model.
func (c *SettingsController) Model() *settings.Model {
	return c.model
}

// OpenDialog shows a new settings dialog filled from the model. On accept the
// dialog values are saved before done is called.
func (c *SettingsController) OpenDialog(done func(accepted bool)) {
	if c.factory == nil {
		c.logger.Error("no settings dialog factory")
		if done != nil {
			done(false)
		}
		return
	}

	dialog := c.factory(c.model, c.logger)
	c.LoadSettingsIntoDialog(dialog)
	dialog.Show(func(accepted bool) {
		if accepted {
			if err := c.SaveSettingsFromDialog(dialog); err != nil {
				accepted = false
			}
		}
		if done != nil {
			done(accepted)
		}
	})
}

// LoadSettingsIntoDialog copies the stored API key into the dialog.
func (c *SettingsController) LoadSettingsIntoDialog(d SettingsDialog) {
	d.SetAPIKey(c.model.APIKey())
}

// SaveSettingsFromDialog stores the dialog's API key.
func (c *SettingsController) SaveSettingsFromDialog(d SettingsDialog) error {
	key := strings.TrimSpace(d.APIKey())
	if err := c.model.SetAPIKey(key); err != nil {
		c.logger.Error("failed to save settings", "error", err)
		return err
	}
	c.logger.Info("settings saved")
	return nil
}
