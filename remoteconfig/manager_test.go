package remoteconfig

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/nest"
)

type audioSettings struct {
	Volume float64 `yaml:"volume" json:"volume"`
	Muted  bool    `yaml:"muted" json:"muted"`
}

type playerSettings struct {
	Name  string `yaml:"name" json:"name"`
	Speed int    `yaml:"speed" json:"speed"`
}

type skippedSettings struct {
	Volume float64 `yaml:"volume"`
}

func TestManager_ApplyKeepsUnsetFields(t *testing.T) {
	m := New()
	require.NoError(t, m.Add("audio", FormatYAML, []byte("volume: 0.25\n")))

	target := &audioSettings{Volume: 1, Muted: true}
	require.NoError(t, m.Apply("audio", target))

	assert.Equal(t, 0.25, target.Volume)
	assert.True(t, target.Muted)
}

func TestManager_ApplyJSON(t *testing.T) {
	m := New()
	require.NoError(t, m.Add("player", FormatJSON, []byte(`{"speed": 7}`)))

	target := &playerSettings{Name: "p1"}
	require.NoError(t, m.Apply("player", target))

	assert.Equal(t, playerSettings{Name: "p1", Speed: 7}, *target)
}

func TestManager_ApplyErrors(t *testing.T) {
	m := New()
	require.NoError(t, m.Add("bad", FormatJSON, []byte(`{"speed": "fast"}`)))

	assert.ErrorIs(t, m.Apply("missing", &playerSettings{}), ErrConfigNotFound)
	assert.Error(t, m.Apply("bad", &playerSettings{}))
	assert.Error(t, m.Apply("bad", playerSettings{}))
}

func TestManager_AddRejects(t *testing.T) {
	m := New()

	assert.Error(t, m.Add("", FormatYAML, nil))
	assert.Error(t, m.Add("x", Format("toml"), nil))

	require.NoError(t, m.Add("x", FormatYAML, nil))
	assert.Error(t, m.Add("x", FormatYAML, nil))
}

func TestManager_Decode(t *testing.T) {
	m := New()
	require.NoError(t, m.Add("player", FormatYAML, []byte("name: hero\nspeed: 3\n")))

	value, err := m.Decode("player", reflect.TypeFor[playerSettings]())
	require.NoError(t, err)
	assert.Equal(t, playerSettings{Name: "hero", Speed: 3}, value)

	ptr, err := m.Decode("player", reflect.TypeFor[*playerSettings]())
	require.NoError(t, err)
	assert.Equal(t, &playerSettings{Name: "hero", Speed: 3}, ptr)

	_, err = m.Decode("missing", reflect.TypeFor[playerSettings]())
	assert.ErrorIs(t, err, ErrConfigNotFound)

	_, err = m.Decode("player", nil)
	assert.Error(t, err)
}

func TestManager_LoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audio.yaml"), []byte("volume: 0.5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "player.json"), []byte(`{"name":"hero"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	m := New()
	require.NoError(t, m.LoadDir(dir))

	assert.Equal(t, []string{"audio", "player"}, m.IDs())
	assert.True(t, m.Has("audio"))
	assert.False(t, m.Has("notes"))

	assert.Error(t, m.LoadFile(filepath.Join(dir, "notes.txt")))
	assert.Error(t, m.LoadDir(filepath.Join(dir, "missing")))
}

func TestManager_EnvExpansion(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "game.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PLAYER_NAME=hero\n"), 0o644))

	t.Setenv("PLAYER_SPEED", "9")

	m := New()
	require.NoError(t, m.LoadEnv(envFile))
	require.NoError(t, m.Add("player", FormatYAML, []byte("name: ${PLAYER_NAME}\nspeed: ${PLAYER_SPEED}\n")))

	var player playerSettings
	require.NoError(t, m.Apply("player", &player))

	assert.Equal(t, playerSettings{Name: "hero", Speed: 9}, player)

	assert.Error(t, m.LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestManager_LiteralDollarIsKept(t *testing.T) {
	type credentials struct {
		Password string `json:"password"`
		Price    string `json:"price"`
		Home     string `json:"home"`
	}

	t.Setenv("CREDS_HOME", "/srv/game")

	m := New()
	require.NoError(t, m.Add("creds", FormatJSON, []byte(
		`{"password":"pa$$w0rd","price":"$5 or $NEST_UNSET_VAR ${NEST_UNSET_VAR}","home":"${CREDS_HOME}"}`,
	)))

	var creds credentials
	require.NoError(t, m.Apply("creds", &creds))

	assert.Equal(t, credentials{
		Password: "pa$$w0rd",
		Price:    "$5 or $NEST_UNSET_VAR ${NEST_UNSET_VAR}",
		Home:     "/srv/game",
	}, creds)
}

func TestManager_ApplyFieldsFeedsSettings(t *testing.T) {
	type holder struct {
		Audio   *audioSettings
		Player  *playerSettings  `config:"player-profile"`
		Skipped *skippedSettings `config:"-"`
		Value   playerSettings   `config:"player-profile"`
	}

	m := New()
	require.NoError(t, m.Add("Audio", FormatYAML, []byte("volume: 0.1\n")))
	require.NoError(t, m.Add("player-profile", FormatJSON, []byte(`{"name":"hero"}`)))
	require.NoError(t, m.Add("Skipped", FormatYAML, []byte("volume: 0.9\n")))

	h := &holder{
		Audio:   &audioSettings{Volume: 1, Muted: true},
		Skipped: &skippedSettings{Volume: 1},
	}
	require.NoError(t, m.ApplyFields(h))

	assert.Equal(t, &audioSettings{Volume: 0.1, Muted: true}, h.Audio)
	assert.Equal(t, &playerSettings{Name: "hero"}, h.Player)
	assert.Equal(t, playerSettings{Name: "hero"}, h.Value)
	assert.Equal(t, 1.0, h.Skipped.Volume)

	settings, err := nest.SettingsFrom(h)
	require.NoError(t, err)

	type spawner struct{ player *playerSettings }

	dir := nest.NewDirectory()
	root, err := dir.InstallRoot([]nest.Installer{
		nest.InstallerFunc(func(b *nest.Binder) error {
			return nest.Bind(b, func(p *playerSettings) *spawner { return &spawner{player: p} })
		}),
	}, nest.WithSettings(settings))
	require.NoError(t, err)

	assert.Same(t, h.Player, nest.Must[*spawner](root).player)
}

func TestManager_ApplyFieldsRejectsNonStruct(t *testing.T) {
	m := New()

	assert.Error(t, m.ApplyFields(nil))
	assert.Error(t, m.ApplyFields(audioSettings{}))

	n := 3
	assert.Error(t, m.ApplyFields(&n))
}
