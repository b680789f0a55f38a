package sequencer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harun/sessionboot/pkg/bootstrap"
	"github.com/harun/sessionboot/pkg/environ"
	"github.com/harun/sessionboot/pkg/runner"
	"github.com/harun/sessionboot/pkg/session"
	"github.com/harun/sessionboot/pkg/sourcer"
)

// Variables resolved by the config normalizer
const (
	cursorThemeVar        = "kcminputrc_mouse_cursortheme"
	cursorSizeVar         = "kcminputrc_mouse_cursorsize"
	splashThemeVar        = "ksplashrc_ksplash_theme"
	splashEngineVar       = "ksplashrc_ksplash_engine"
	scaleFactorVar        = "kdeglobals_kscreen_scalefactor"
	screenScaleFactorsVar = "kdeglobals_kscreen_screenscalefactors"
	forceFontDPIVar       = "kcmfonts_general_forcefontdpi"
)

// LockedVar marks a session started behind the lock screen
const LockedVar = "DESKTOP_LOCKED"

// DefaultDataDirs is used when XDG_DATA_DIRS is not set
const DefaultDataDirs = "/usr/share:/usr/local/share"

const (
	splashEngine = "KSplashQML"

	// exitApplyDefaultCursor is returned by the cursor applier when the
	// configured theme could not be applied
	exitApplyDefaultCursor = 10

	// exitSessionManagerFailed is the wrapper's only reliable failure code
	exitSessionManagerFailed = 255
)

// Splash stage notification
const (
	splashService = "org.kde.KSplash"
	splashPath    = "/KSplash"
	splashMethod  = "org.kde.KSplash.setStage"
	splashStage   = "kinit"
)

func couldNotStart(tool string) string {
	return fmt.Sprintf("sessionboot: Could not start %s. Check your installation.\n", filepath.Base(tool))
}

// captureLocked reads and removes DESKTOP_LOCKED so it never reaches children
// or the activation environment.
func (s *Sequencer) captureLocked() error {
	value := s.env.Get(LockedVar)
	s.locked = value == "true" || value == "1"
	if _, ok := s.env.Lookup(LockedVar); !ok {
		return errSkipped
	}
	return s.env.Unset(LockedVar)
}

func (s *Sequencer) ensureConfig(ctx context.Context) error {
	err := s.bootstrap.EnsureConfig(ctx)
	if err == nil {
		return nil
	}

	var normErr *bootstrap.NormalizationError
	if errors.As(err, &normErr) {
		return &FatalError{
			Step:    "ensure_config",
			Message: fmt.Sprintf("%s does not exist or fails. The error code is %d. Check your installation.\n", normErr.Normalizer, normErr.Code),
			Err:     err,
		}
	}
	return &FatalError{
		Step:    "ensure_config",
		Message: fmt.Sprintf("sessionboot: Could not prepare the session configuration: %v\n", err),
		Err:     err,
	}
}

func (s *Sequencer) runStartupConfig(ctx context.Context) error {
	return s.bootstrap.RunStartupConfig(ctx)
}

func (s *Sequencer) setupScaling() error {
	if s.cfg.Session.Wayland {
		return errSkipped
	}

	applied := false
	if factors := s.env.Get(screenScaleFactorsVar); factors != "" {
		if err := s.env.Set("QT_SCREEN_SCALE_FACTORS", factors); err != nil {
			return err
		}
		applied = true
	}
	// GTK only scales by integers; compensate the font DPI.
	if s.env.Get(scaleFactorVar) == "2" {
		if err := s.env.Set("GDK_SCALE", "2"); err != nil {
			return err
		}
		if err := s.env.Set("GDK_DPI_SCALE", "0.5"); err != nil {
			return err
		}
		applied = true
	}

	if !applied {
		return errSkipped
	}
	return nil
}

func (s *Sequencer) setupCursor(ctx context.Context) error {
	theme := s.env.Get(cursorThemeVar)
	size := s.env.Get(cursorSizeVar)

	var errs []error
	if theme != "" || size != "" {
		path := expandCursorPath(s.cfg.Session.XcursorPath, s.env.Get("XCURSOR_PATH"), s.env.Get("HOME"))
		if err := s.env.Set("XCURSOR_PATH", path); err != nil {
			errs = append(errs, err)
		}
	}

	code := 0
	if !s.cfg.Session.Wayland {
		var err error
		code, err = s.runner.Run(ctx, runner.LaunchSpec{
			Path: s.cfg.Tools.CursorApplier,
			Args: []string{theme, size},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("applying cursor theme: %w", err))
		}
	}

	switch {
	case code == exitApplyDefaultCursor:
		s.logger.Warn().Str("theme", theme).Msg("Cursor theme could not be applied, using default")
		if err := s.env.Set("XCURSOR_THEME", s.cfg.Session.DefaultCursorTheme); err != nil {
			errs = append(errs, err)
		}
	case theme != "":
		if err := s.env.Set("XCURSOR_THEME", theme); err != nil {
			errs = append(errs, err)
		}
	}
	if size != "" {
		if err := s.env.Set("XCURSOR_SIZE", size); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// expandCursorPath substitutes the inherited search path into template and
// resolves "~/" entries against home.
func expandCursorPath(template, inherited, home string) string {
	entries := strings.Split(strings.ReplaceAll(template, "$XCURSOR_PATH", inherited), ":")
	for i, entry := range entries {
		if home != "" && strings.HasPrefix(entry, "~/") {
			entries[i] = filepath.Join(home, entry[2:])
		}
	}
	return strings.Join(entries, ":")
}

func (s *Sequencer) runEnvironmentScripts(ctx context.Context) error {
	dirs := s.configDirs
	if dirs == nil {
		dirs = sourcer.ConfigDirs(s.env)
	}

	scripts := sourcer.Discover(dirs, s.cfg.Session.FragmentSubdir)
	if len(scripts) == 0 {
		return errSkipped
	}

	changes, err := s.sourcer.Source(ctx, scripts)
	s.metrics.EnvironmentChangesTotal.Add(float64(len(changes)))
	if err != nil {
		return err
	}
	s.logger.Info().Int("scripts", len(scripts)).Int("changed", len(changes)).Msg("Environment scripts sourced")
	return nil
}

func (s *Sequencer) setupDataDirs() error {
	dirs, ok := s.env.Lookup("XDG_DATA_DIRS")
	if !ok || dirs == "" {
		dirs = DefaultDataDirs
	}
	if s.cfg.Session.DataDir != "" {
		dirs = environ.PrependPath(dirs, s.cfg.Session.DataDir)
	}
	_, err := environ.SetIfChanged(s.env, "XDG_DATA_DIRS", dirs)
	return err
}

func (s *Sequencer) exportMarkers() error {
	if err := s.markers.Export(s.env); err != nil {
		return err
	}
	s.exported = true
	return nil
}

func (s *Sequencer) publishMarkers(ctx context.Context) error {
	// Set before publishing so a partial failure is still withdrawn.
	s.published = true
	return s.markers.Publish(ctx, s.publisher)
}

func (s *Sequencer) setupFontDPI(ctx context.Context) error {
	if s.cfg.Session.Wayland {
		return errSkipped
	}
	dpi := s.env.Get(forceFontDPIVar)
	if dpi == "" || dpi == "0" {
		return errSkipped
	}

	code, err := s.runner.Run(ctx, runner.LaunchSpec{
		Path:  s.cfg.Tools.Xrdb,
		Args:  []string{"-quiet", "-merge", "-nocpp"},
		Stdin: []byte("Xft.dpi: " + dpi + "\n"),
	})
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s exited with code %d", s.cfg.Tools.Xrdb, code)
	}
	return nil
}

func (s *Sequencer) setupGhostscript() error {
	home := s.env.Get("HOME")
	if home == "" {
		return errSkipped
	}

	fonts := filepath.Join(home, ".fonts")
	if existing, ok := s.env.Lookup("GS_LIB"); ok && existing != "" {
		fonts = environ.PrependPath(existing, fonts)
	}
	_, err := environ.SetIfChanged(s.env, "GS_LIB", fonts)
	return err
}

func (s *Sequencer) syncActivation(ctx context.Context) error {
	return session.SyncActivationEnvironment(ctx, s.runner, s.cfg.Tools.ActivationUtility, s.cfg.Tools.ActivationHelper)
}

func (s *Sequencer) triggerHooks(ctx context.Context, event string, data map[string]interface{}) error {
	if s.hooks == nil {
		return errSkipped
	}
	return s.hooks.Trigger(ctx, event, data)
}

func (s *Sequencer) startSplash(ctx context.Context) error {
	if s.locked {
		s.logger.Info().Msg("Desktop starts locked, no splash")
		return errSkipped
	}
	if engine := s.env.Get(splashEngineVar); engine != splashEngine {
		s.logger.Debug().Str("engine", engine).Msg("Splash disabled")
		return errSkipped
	}

	handle, err := s.runner.Start(ctx, runner.LaunchSpec{
		Path: s.cfg.Tools.Splash,
		Args: []string{s.env.Get(splashThemeVar)},
	})
	if err != nil {
		return err
	}
	s.splash = handle
	return nil
}

func (s *Sequencer) startCore(ctx context.Context) error {
	tool := s.cfg.Tools.CoreInit
	code, err := s.runner.Run(ctx, runner.LaunchSpec{
		Path: tool,
		Args: s.cfg.Tools.CoreInitArgs,
		Env:  map[string]string{"LD_BIND_NOW": "true"},
	})
	if err != nil {
		return &FatalError{Step: "core_init", Message: couldNotStart(tool), Err: fmt.Errorf("%w: %w", ErrCoreInitFailed, err)}
	}
	if code != 0 {
		return &FatalError{Step: "core_init", Message: couldNotStart(tool), Err: fmt.Errorf("%w: %s exited with code %d", ErrCoreInitFailed, tool, code)}
	}
	return nil
}

func (s *Sequencer) notifySplash(ctx context.Context) error {
	if s.splash == nil {
		return errSkipped
	}
	return s.directory.Call(ctx, splashService, splashPath, splashMethod, splashStage)
}

func (s *Sequencer) startSessionManager(ctx context.Context) error {
	args := []string{s.cfg.Tools.SessionManager}
	if s.locked {
		args = append(args, "--lockscreen")
	}

	code, err := s.runner.Run(ctx, runner.LaunchSpec{Path: s.cfg.Tools.SessionWrapper, Args: args})
	if err != nil {
		return &FatalError{
			Step:    "session_manager",
			Message: couldNotStart(s.cfg.Tools.SessionManager),
			Err:     fmt.Errorf("%w: %w", ErrSessionManagerFailed, err),
		}
	}

	// Inherited contract, kept as is: the wrapper only reliably reports 255
	// when the session manager could not be started. Any other code may come
	// from a later failure and is not treated as fatal.
	if code == exitSessionManagerFailed {
		return &FatalError{
			Step:    "session_manager",
			Message: couldNotStart(s.cfg.Tools.SessionManager),
			Err:     fmt.Errorf("%w: %s exited with code %d", ErrSessionManagerFailed, s.cfg.Tools.SessionWrapper, code),
		}
	}
	if code != 0 {
		s.logger.Warn().Int("code", code).Msg("Session manager wrapper exited with non-zero code, ignored")
	}
	return nil
}

func (s *Sequencer) waitForPeers(ctx context.Context) error {
	cfg := s.cfg.CrashHandlers
	result, err := WaitForShutdownPeers(ctx, s.directory, s.clock, PeerWaitConfig{
		Enabled:      cfg.Enabled,
		Timeout:      cfg.TimeoutDuration(),
		PollInterval: cfg.PollDuration(),
		Prefix:       cfg.ServicePrefix,
		QuitPath:     cfg.QuitPath,
		QuitMethod:   cfg.QuitMethod,
	}, s.logger)

	s.metrics.ShutdownPeersRemaining.Set(float64(len(result.Remaining)))
	s.metrics.ShutdownPeerQuitsTotal.Add(float64(len(result.Quit)))
	s.metrics.ShutdownWaitDuration.Set(result.Waited.Seconds())

	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return errSkipped
	}
	return nil
}

func (s *Sequencer) shutdownCore(ctx context.Context) error {
	code, err := s.runner.Run(ctx, runner.LaunchSpec{Path: s.cfg.Tools.CoreShutdown})
	if err != nil {
		return err
	}
	if code != 0 {
		return fmt.Errorf("%s exited with code %d", s.cfg.Tools.CoreShutdown, code)
	}
	return nil
}

func (s *Sequencer) unexportMarkers() error {
	if !s.exported {
		return errSkipped
	}
	s.exported = false
	return s.markers.Unexport(s.env)
}

func (s *Sequencer) withdrawMarkers(ctx context.Context) error {
	if !s.published {
		return errSkipped
	}
	s.published = false
	return s.markers.Withdraw(ctx, s.publisher)
}

func (s *Sequencer) killSplash() error {
	if s.splash == nil {
		return errSkipped
	}
	handle := s.splash
	s.splash = nil
	return handle.Kill()
}

func (s *Sequencer) startupHookData() map[string]interface{} {
	return map[string]interface{}{
		"desktop": s.cfg.Session.Desktop,
		"wayland": s.cfg.Session.Wayland,
		"locked":  s.locked,
	}
}
