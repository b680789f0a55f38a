package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harun/sessionboot/pkg/environ"
	"github.com/harun/sessionboot/pkg/runner"
	"github.com/harun/sessionboot/pkg/runner/runnertest"
	"github.com/harun/sessionboot/pkg/sourcer"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedManifest = `kcminputrc Mouse cursorTheme 'breeze_cursors'
kcminputrc Mouse cursorSize ''
ksplashrc KSplash Theme Breeze
ksplashrc KSplash Engine KSplashQML
kdeglobals KScreen ScaleFactor ''
kdeglobals KScreen ScreenScaleFactors ''
kcmfonts General forceFontDPI 0
`

type recordingSourcer struct {
	calls [][]string
}

func (r *recordingSourcer) Source(ctx context.Context, paths []string) ([]sourcer.Change, error) {
	r.calls = append(r.calls, paths)
	return nil, nil
}

func newBootstrapper(t *testing.T, dir string, fake *runnertest.Runner, env *environ.Map) (*Bootstrapper, *recordingSourcer) {
	t.Helper()
	src := &recordingSourcer{}
	return New(Config{
		ConfigDir:  dir,
		Normalizer: "kstartupconfig5",
		Runner:     fake,
		Env:        env,
		Sourcer:    src,
		Logger:     zerolog.Nop(),
	}), src
}

func TestEnsureConfig(t *testing.T) {
	t.Run("writes manifest and locale then normalizes", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "config")
		fake := runnertest.New()
		b, _ := newBootstrapper(t, dir, fake, environ.NewMap(map[string]string{"LANG": "de_DE.UTF-8"}))

		require.NoError(t, b.EnsureConfig(context.Background()))

		manifest, err := os.ReadFile(filepath.Join(dir, ManifestFile))
		require.NoError(t, err)
		assert.Equal(t, expectedManifest, string(manifest))

		locale, err := os.ReadFile(filepath.Join(dir, LocaleFile))
		require.NoError(t, err)
		assert.Equal(t, "[Formats]\nLANG=de_DE.UTF-8\n", string(locale))

		assert.Equal(t, []string{"kstartupconfig5"}, fake.Names())
	})

	t.Run("idempotent manifest, locale written once", func(t *testing.T) {
		dir := t.TempDir()
		env := environ.NewMap(map[string]string{"LANG": "en_US.UTF-8"})
		b, _ := newBootstrapper(t, dir, runnertest.New(), env)

		require.NoError(t, b.EnsureConfig(context.Background()))
		first, err := os.ReadFile(filepath.Join(dir, ManifestFile))
		require.NoError(t, err)

		// A changed locale must not overwrite the seeded preference, and a
		// tampered manifest is restored.
		require.NoError(t, env.Set("LANG", "fr_FR.UTF-8"))
		require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFile), []byte("stale\n"), 0644))

		require.NoError(t, b.EnsureConfig(context.Background()))

		second, err := os.ReadFile(filepath.Join(dir, ManifestFile))
		require.NoError(t, err)
		assert.Equal(t, first, second)

		locale, err := os.ReadFile(filepath.Join(dir, LocaleFile))
		require.NoError(t, err)
		assert.Equal(t, "[Formats]\nLANG=en_US.UTF-8\n", string(locale))
	})

	t.Run("normalizer non-zero is fatal", func(t *testing.T) {
		fake := runnertest.New().Script("kstartupconfig5", 3)
		b, _ := newBootstrapper(t, t.TempDir(), fake, environ.NewMap(nil))

		err := b.EnsureConfig(context.Background())

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNormalizationFailed)
		var normErr *NormalizationError
		require.ErrorAs(t, err, &normErr)
		assert.Equal(t, 3, normErr.Code)
		assert.Contains(t, err.Error(), "exited with code 3")
	})

	t.Run("normalizer missing is fatal", func(t *testing.T) {
		fake := runnertest.New().ScriptSpawnFailure("kstartupconfig5")
		b, _ := newBootstrapper(t, t.TempDir(), fake, environ.NewMap(nil))

		err := b.EnsureConfig(context.Background())

		assert.ErrorIs(t, err, ErrNormalizationFailed)
		assert.ErrorIs(t, err, runner.ErrSpawnFailed)
	})

	t.Run("unwritable directory fails on manifest write", func(t *testing.T) {
		parent := t.TempDir()
		blocker := filepath.Join(parent, "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0644))

		fake := runnertest.New()
		b, _ := newBootstrapper(t, filepath.Join(blocker, "config"), fake, environ.NewMap(nil))

		err := b.EnsureConfig(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not write into")
		assert.Empty(t, fake.Calls())
	})

	t.Run("no config directory", func(t *testing.T) {
		b := New(Config{Runner: runnertest.New(), Env: environ.NewMap(nil), Logger: zerolog.Nop()})
		assert.ErrorIs(t, b.EnsureConfig(context.Background()), ErrNoConfigDir)
	})
}

func TestNewDerivesConfigDir(t *testing.T) {
	b := New(Config{Env: environ.NewMap(map[string]string{"XDG_CONFIG_HOME": "/cfg"}), Logger: zerolog.Nop()})
	assert.Equal(t, "/cfg", b.ConfigDir())
}

func TestRunStartupConfig(t *testing.T) {
	dir := t.TempDir()
	b, src := newBootstrapper(t, dir, runnertest.New(), environ.NewMap(nil))

	require.NoError(t, b.RunStartupConfig(context.Background()))

	require.Len(t, src.calls, 1)
	assert.Equal(t, []string{
		filepath.Join(dir, "startupconfig"),
		filepath.Join(dir, "plasma-locale-settings.sh"),
	}, src.calls[0])
}

func TestRunStartupConfig_RealShell(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StartupConfigFile),
		[]byte("kcminputrc_mouse_cursortheme='breeze_cursors'\nksplashrc_ksplash_engine=KSplashQML\n"), 0644))

	env := environ.NewMap(map[string]string{"PATH": os.Getenv("PATH")})
	src := sourcer.New(sourcer.Config{
		Runner: runner.NewExec(env, zerolog.Nop()),
		Env:    env,
		Logger: zerolog.Nop(),
	})
	b := New(Config{ConfigDir: dir, Env: env, Sourcer: src, Logger: zerolog.Nop()})

	require.NoError(t, b.RunStartupConfig(context.Background()))

	assert.Equal(t, "breeze_cursors", env.Get("kcminputrc_mouse_cursortheme"))
	assert.Equal(t, "KSplashQML", env.Get("ksplashrc_ksplash_engine"))
}

func TestManifestEntry(t *testing.T) {
	entry := DefaultManifest[0]
	assert.Equal(t, "kcminputrc Mouse cursorTheme 'breeze_cursors'", entry.String())
	assert.Equal(t, "kcminputrc_mouse_cursortheme", entry.EnvName())
}

func TestRenderManifest_EveryLineIsAnEntry(t *testing.T) {
	lines := strings.Split(strings.TrimSuffix(string(RenderManifest(DefaultManifest)), "\n"), "\n")

	require.Len(t, lines, len(DefaultManifest))
	for i, line := range lines {
		assert.Len(t, strings.Fields(line), 4, line)
		assert.Equal(t, DefaultManifest[i].String(), line)
	}
}
