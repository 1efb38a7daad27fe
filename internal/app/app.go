// Package app is the composition root. It builds the window, the models and
// the controllers, then wires the window's actions to them and to the event bus.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"scribe/internal/ai"
	"scribe/internal/apperr"
	"scribe/internal/config"
	"scribe/internal/controller"
	"scribe/internal/eventbus"
	"scribe/internal/files"
	"scribe/internal/folders"
	"scribe/internal/logging"
	"scribe/internal/settings"
	"scribe/internal/tabs"
	"scribe/internal/ui"
	"scribe/internal/undo"
	"scribe/internal/watcher"
)

// State is the lifecycle stage of an App.
type State int

const (
	StateNew State = iota
	StateWired
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateWired:
		return "wired"
	case StateRunning:
		return "running"
	default:
		return "new"
	}
}

// maxJournal is the number of AI edits kept for undo.
const maxJournal = 100

// App owns the window and everything behind it.
type App struct {
	cfg    *config.Config
	base   *slog.Logger // without the status bar mirror
	logger *slog.Logger
	bus    *eventbus.Bus
	window *ui.Window

	tabState      *tabs.State
	fileModel     *files.Model
	folderModel   *folders.Model
	settingsModel *settings.Model
	builder       *folders.TreeBuilder

	tabCtl      *controller.TabController
	fileCtl     *controller.FileController
	folderCtl   *controller.FolderController
	settingsCtl *controller.SettingsController
	aiCtl       *controller.AIController
	aiClient    ai.Client

	journal *undo.Manager
	watcher *watcher.Watcher
	tracker *GoroutineTracker

	mu    sync.Mutex
	send  func(tea.Msg)
	state State

	ctx           context.Context
	cancel        context.CancelFunc
	signalCleanup func()
}

// Option customizes New. Anything not injected gets a default instance.
type Option func(*App)

// WithWindow uses w instead of a window built from the config.
func WithWindow(w *ui.Window) Option {
	return func(a *App) { a.window = w }
}

// WithBus uses b as the event bus.
func WithBus(b *eventbus.Bus) Option {
	return func(a *App) { a.bus = b }
}

// WithAIClient injects the AI client. ResetClient never drops it.
func WithAIClient(c ai.Client) Option {
	return func(a *App) { a.aiClient = c }
}

// WithAIController replaces the AI controller.
func WithAIController(c *controller.AIController) Option {
	return func(a *App) { a.aiCtl = c }
}

// WithSettingsController replaces the settings controller.
func WithSettingsController(c *controller.SettingsController) Option {
	return func(a *App) { a.settingsCtl = c }
}

// WithSettingsModel uses m instead of opening the configured settings file.
func WithSettingsModel(m *settings.Model) Option {
	return func(a *App) { a.settingsModel = m }
}

// WithJournal replaces the AI edit journal.
func WithJournal(j *undo.Manager) Option {
	return func(a *App) { a.journal = j }
}

// WithSender sets the function used to deliver messages from background
// goroutines. Run sets it to the program's Send.
func WithSender(send func(tea.Msg)) Option {
	return func(a *App) { a.send = send }
}

// New builds the app and wires it. The returned app is in StateWired.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	a := &App{
		cfg:     cfg,
		base:    logger,
		tracker: NewGoroutineTracker(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	if a.window == nil {
		a.window = ui.NewWindow(ui.WindowOptions{
			Styles:      ui.StylesFor(cfg.UI.ChatStyle),
			TreeWidth:   cfg.UI.TreeWidth,
			ChatPercent: cfg.UI.ChatWidth,
			Chat: ui.ChatOptions{
				Markdown:  cfg.UI.MarkdownRendering,
				Style:     cfg.UI.ChatStyle,
				CodeTheme: cfg.UI.CodeTheme,
			},
			SettingsPath: cfg.SettingsPath(),
		})
	}
	a.logger = logging.WithStatus(logger, a.window.Status())

	if a.bus == nil {
		a.bus = eventbus.New(logging.Child(logger, "event_bus"))
	}
	if err := a.buildDefaults(); err != nil {
		a.cancel()
		return nil, err
	}

	a.wire()
	a.state = StateWired
	return a, nil
}

func (a *App) buildDefaults() error {
	cfg := a.cfg

	if a.settingsModel == nil {
		m, err := settings.Open(cfg.SettingsPath(), logging.Child(a.base, "settings_model"))
		if err != nil {
			return fmt.Errorf("open settings: %w", err)
		}
		a.settingsModel = m
	}

	a.tabState = tabs.NewState()
	a.fileModel = files.NewModel(
		files.WithLegacyEncoding(cfg.Editor.LegacyEncoding),
		files.WithLogger(logging.Child(a.base, "file_model")),
	)
	a.folderModel = folders.NewModel(logging.Child(a.base, "folder_model"))
	a.builder = folders.NewTreeBuilder(cfg.Tree.Excludes).UseGitignore(cfg.Tree.Gitignore)

	a.tabCtl = controller.NewTabController(a.tabState, a.window.Editor(), logging.Child(a.base, "tab_controller"))
	a.fileCtl = controller.NewFileController(a.fileModel, a.tabCtl, a.window.Editor(), cfg.Editor.Encoding,
		logging.Child(a.logger, "file_controller"))
	a.fileCtl.OnEncodingFallback(a.warnEncodingFallback)
	a.folderCtl = controller.NewFolderController(a.folderModel, a.builder, a.window.Tree(),
		logging.Child(a.logger, "folder_controller"))

	if a.settingsCtl == nil {
		dialog := a.window.SettingsDialog()
		factory := func(*settings.Model, *slog.Logger) controller.SettingsDialog { return dialog }
		a.settingsCtl = controller.NewSettingsController(a.settingsModel, factory,
			logging.Child(a.logger, "settings_controller"))
	}

	if a.aiCtl == nil {
		a.aiCtl = NewAIController(cfg, a.aiClient, a.apiKey, logging.Child(a.base, "ai_controller"))
	}

	if a.journal == nil {
		a.journal = undo.NewManager(maxJournal, logging.Child(a.base, "journal"))
	}
	return nil
}

// NewAIController returns an AI controller for cfg. With a nil client it
// builds one lazily from the provider settings and apiKey.
func NewAIController(cfg *config.Config, client ai.Client, apiKey func() string, logger *slog.Logger) *controller.AIController {
	model := cfg.Model.Name
	if model == "" {
		model = cfg.DefaultModelName()
	}
	return controller.NewAIController(controller.AIConfig{
		Client: client,
		Builder: func(ctx context.Context, key string) (ai.Client, error) {
			return ai.NewClient(ctx, ai.OptionsFromConfig(cfg, key, logger))
		},
		APIKey: apiKey,
		Model:  model,
		Logger: logger,
	})
}

// wire connects window actions and bus subscriptions.
func (a *App) wire() {
	a.window.SetActions(ui.Actions{
		OpenFile:       a.handleOpenFile,
		NewFile:        a.handleNewFile,
		OpenFolder:     a.handleOpenFolder,
		Save:           a.handleSave,
		SaveAs:         a.handleSaveAs,
		CloseTab:       a.handleCloseTab,
		Settings:       a.handleSettings,
		ChatSubmit:     a.handleChatSubmit,
		AttachPath:     a.handleAttachPath,
		AttachCurrent:  a.handleAttachCurrent,
		TreeCreate:     a.handleTreeCreate,
		TreeDelete:     a.handleTreeDelete,
		TreeRename:     a.handleTreeRename,
		TreeRefresh:    a.handleTreeRefresh,
		FolderSelected: a.handleFolderSelected,
		TextChanged:    a.handleTextChanged,
		TabChanged:     a.handleTabChanged,
		UndoAIEdit:     a.handleUndoAIEdit,
		RedoAIEdit:     a.handleRedoAIEdit,
		AIEditHistory:  a.handleAIEditHistory,
		Quit:           a.handleQuit,
		Message:        a.handleMessage,
	})
	a.bus.Subscribe(eventbus.FileSaveRequest, a)
}

// apiKey prefers the settings file over the config file.
func (a *App) apiKey() string {
	if key := a.settingsModel.APIKey(); key != "" {
		return key
	}
	return a.cfg.API.APIKey
}

// State returns the lifecycle stage.
func (a *App) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *App) Window() *ui.Window                             { return a.window }
func (a *App) Bus() *eventbus.Bus                             { return a.bus }
func (a *App) Journal() *undo.Manager                         { return a.journal }
func (a *App) FileController() *controller.FileController     { return a.fileCtl }
func (a *App) FolderController() *controller.FolderController { return a.folderCtl }
func (a *App) AIController() *controller.AIController         { return a.aiCtl }

// Start loads the initial folder and starts watching it. Errors loading the
// folder are reported on the status bar and do not stop the app.
func (a *App) Start() error {
	a.mu.Lock()
	if a.state == StateRunning {
		a.mu.Unlock()
		return nil
	}
	a.state = StateRunning
	a.mu.Unlock()

	if a.folderCtl.Root() == "" {
		root := a.cfg.Tree.Root
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("get working directory: %w", err)
			}
			root = wd
		}
		if err := a.folderCtl.LoadInitialTree(root); err != nil {
			a.fail("open folder", err)
			return nil
		}
	}
	a.restartWatcher(a.folderCtl.Root())
	a.base.Info("app started", "root", a.folderCtl.Root())
	if err := a.settingsModel.LoadError(); err != nil {
		a.window.Status().ShowStatus(fmt.Sprintf("WARNING: settings ignored, saving settings replaces the file: %v", err), 10*time.Second)
	}
	return nil
}

// Open opens each path: the last directory becomes the tree root and files
// get editor tabs.
func (a *App) Open(paths ...string) {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			a.fail("open", err)
			continue
		}
		if info.IsDir() {
			if err := a.folderCtl.LoadInitialTree(p); err != nil {
				a.fail("open folder", err)
			}
			continue
		}
		a.handleOpenFile(p)
	}
}

// Run starts the terminal program and blocks until it exits.
func (a *App) Run() error {
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if a.cfg.UI.MouseMode != "disabled" {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(a.window, opts...)
	a.setSender(p.Send)
	a.signalCleanup = a.setupSignalHandler(p)
	defer a.Close()

	if err := a.Start(); err != nil {
		return err
	}
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// Close cancels in-flight requests, stops the watcher and waits briefly for
// background work.
func (a *App) Close() error {
	a.cancel()
	if a.signalCleanup != nil {
		a.signalCleanup()
		a.signalCleanup = nil
	}
	a.stopWatcher()
	a.tracker.Close()
	if !a.tracker.WaitWithTimeout(GracefulShutdownTimeout) {
		a.base.Warn("background requests still running at shutdown")
	}
	return nil
}

func (a *App) setSender(send func(tea.Msg)) {
	a.mu.Lock()
	a.send = send
	a.mu.Unlock()
}

func (a *App) sender() func(tea.Msg) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.send
}

// fail logs err and shows it on the status bar.
// fail reports err at the action boundary. Validation errors are the
// user's to fix and show as warnings.
func (a *App) fail(action string, err error) {
	kind, _ := apperr.KindOf(err)
	a.base.Error(action+" failed", "kind", kind.String(), "error", err)
	level := "ERROR"
	if apperr.IsKind(err, apperr.KindValidation) {
		level = "WARNING"
	}
	a.window.Status().ShowStatus(fmt.Sprintf("%s: %s: %v", level, action, err), 5*time.Second)
}

func (a *App) warnEncodingFallback(path, from string) {
	a.window.Status().ShowStatus(fmt.Sprintf("WARNING: %s saved as utf-8, its text does not fit %s", filepath.Base(path), from), 5*time.Second)
}

func (a *App) info(msg string) {
	a.window.Status().ShowStatus("INFO: "+msg, 3*time.Second)
}
