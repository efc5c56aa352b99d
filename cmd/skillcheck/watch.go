package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/config"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/logger"
	"github.com/CorentinLumineau/x-devsecops-sub003/pkg/presenter"
	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	IgnoreDirs   []string
	DebounceTime int
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		IgnoreDirs:   []string{".git", "node_modules"},
		DebounceTime: 300,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	var result *multierror.Error
	if c.DebounceTime < 0 {
		result = multierror.Append(result, errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime))
	}
	for _, dir := range c.IgnoreDirs {
		if dir == "" {
			result = multierror.Append(result, errors.New("ignored directory names must not be empty"))
			break
		}
	}
	return result.ErrorOrNil()
}

// FileEvent represents a file system event with additional metadata
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate the corpus whenever a file changes",
	Long: `Runs a full validation, then watches the skills and rules directories and
runs a fresh validation after every burst of changes. Nothing is carried over
between runs.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		watchConfig := getWatchConfigFromFlags(cmd)
		if err := watchConfig.Validate(); err != nil {
			presenter.Error(err, "Invalid watch configuration")
			os.Exit(1)
		}

		cfg, err := loadConfig()
		if err != nil {
			presenter.Error(err, "Invalid configuration")
			os.Exit(1)
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-sigCh
			presenter.Warning("Stopping watch...")
			cancel()
		}()

		if err := runWatchMode(ctx, cfg, watchConfig); err != nil {
			presenter.Error(err, "Watch failed")
			os.Exit(1)
		}
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("ignore", "i", defaults.IgnoreDirs, "Directory names to ignore")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
}

// getWatchConfigFromFlags extracts watch configuration from command flags
func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if ignoreDirs, err := cmd.Flags().GetStringSlice("ignore"); err == nil {
		config.IgnoreDirs = ignoreDirs
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}

	return config
}

func runWatchMode(ctx context.Context, cfg *config.Config, watchConfig *WatchConfig) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	for _, root := range []string{cfg.SkillsRoot(), cfg.RulesRoot()} {
		dirs, err := watchDirs(root, watchConfig.IgnoreDirs)
		if err != nil {
			return err
		}
		for _, dir := range dirs {
			logger.G(ctx).WithField("directory", dir).Debug("adding directory to watcher")
			if err := watcher.Add(dir); err != nil {
				return errors.Wrapf(err, "failed to watch %s", dir)
			}
		}
	}

	events := make(chan FileEvent)
	debounced := make(chan FileEvent)
	go debounceFileEvents(ctx, events, debounced, time.Duration(watchConfig.DebounceTime)*time.Millisecond)

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ignored(event.Name, watchConfig.IgnoreDirs) {
					continue
				}
				if event.Op&fsnotify.Create != 0 {
					watchNewDir(ctx, watcher, event.Name)
				}
				select {
				case events <- FileEvent{Path: event.Name, Op: event.Op, Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.G(ctx).WithError(err).Error("error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	session := newWatchSession(cfg, presenter.Default(), os.Stdout)
	session.validate(ctx, "")
	session.p.Info("Watching for changes... Press Ctrl+C to stop")

	for {
		select {
		case event := <-debounced:
			logger.G(ctx).WithField("file", event.Path).WithField("operation", event.Op.String()).Debug("file change detected")
			session.validate(ctx, fmt.Sprintf("Change detected: %s (%s)", event.Path, event.Op))
		case <-ctx.Done():
			return nil
		}
	}
}

// watchSession runs the successive validations of one watch. Runs share
// nothing but the exit code of the previous one.
type watchSession struct {
	cfg *config.Config
	p   presenter.Presenter
	w   io.Writer

	runs     int
	lastCode int
}

func newWatchSession(cfg *config.Config, p presenter.Presenter, w io.Writer) *watchSession {
	return &watchSession{cfg: cfg, p: p, w: w}
}

// validate runs a fresh validation and returns its exit code. Setup failures
// are printed and the watch keeps going so the author can fix them.
func (s *watchSession) validate(ctx context.Context, reason string) int {
	s.runs++
	ctx = logger.WithLogger(ctx, logger.G(ctx).WithField("run", s.runs))

	if s.runs > 1 {
		s.p.Separator()
	}
	if reason != "" {
		s.p.Section(reason)
	}

	code, err := validate(ctx, s.cfg, s.p, s.w)
	if err != nil {
		logger.G(ctx).WithError(err).Debug("validation could not start")
		s.p.Error(err, "Validation could not start")
	}
	if code == 0 && s.lastCode != 0 {
		s.p.Success("All ERROR findings resolved")
	}
	s.lastCode = code
	return code
}

// watchNewDir adds a directory created during the watch. Failures are logged
// and the watch goes on without it.
func watchNewDir(ctx context.Context, watcher *fsnotify.Watcher, path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	if err := watcher.Add(path); err != nil {
		logger.G(ctx).WithError(err).WithField("directory", path).Error("failed to watch new directory")
		return false
	}
	logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
	return true
}

// watchDirs lists root and every directory beneath it, skipping ignored and
// hidden directories. A missing root yields no directories.
func watchDirs(root string, ignore []string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}

	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && ignored(path, ignore) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to walk %s", root)
	}
	return dirs, nil
}

// ignored reports whether the last element of path is hidden or ignored.
func ignored(path string, ignore []string) bool {
	base := filepath.Base(path)
	if len(base) > 1 && base[0] == '.' {
		return true
	}
	for _, name := range ignore {
		if base == name {
			return true
		}
	}
	return false
}

// debounceFileEvents collapses bursts of events into the last one, emitted
// once no event arrived for delay.
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending FileEvent
	)
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}

	for {
		select {
		case event, ok := <-input:
			if !ok {
				stop()
				return
			}
			pending = event
			stop()
			timer = time.NewTimer(delay)
			fire = timer.C
		case <-fire:
			fire = nil
			select {
			case output <- pending:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			stop()
			return
		}
	}
}
