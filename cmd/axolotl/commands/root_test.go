package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/app"
	"axolotl/internal/domain"
	"axolotl/internal/store"
)

func TestParseAddress(t *testing.T) {
	cases := map[string]domain.Address{
		"bob":       {Name: "bob", DeviceID: 1},
		"bob.7":     {Name: "bob", DeviceID: 7},
		"bob.smith": {Name: "bob.smith", DeviceID: 1},
		"a.b.2":     {Name: "a.b", DeviceID: 2},
	}
	for in, want := range cases {
		got, err := parseAddress(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := parseAddress("")
	require.Error(t, err)
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute(), out.String())
	return out.String()
}

func TestInitThenFingerprint(t *testing.T) {
	home := t.TempDir()
	const pass = "Sup3r-secret-phrase"

	created := run(t, "--home", home, "-p", pass, "init")
	require.Contains(t, created, "Identity created.")

	var fp string
	for _, line := range strings.Split(created, "\n") {
		if v, ok := strings.CutPrefix(line, "Fingerprint: "); ok {
			fp = v
		}
	}
	require.Len(t, fp, 20)

	shown := run(t, "--home", home, "-p", pass, "fingerprint")
	require.Contains(t, shown, fp)
}

func TestAdoptSoleAccount(t *testing.T) {
	home := t.TempDir()
	accounts := store.NewAccountFileStore(home)
	require.NoError(t, accounts.SaveAccountProfile(domain.AccountProfile{
		ServerURL: "http://relay.test", Username: "alice", DeviceID: 3, Token: "tok-a",
	}))
	require.NoError(t, accounts.SaveAccountProfile(domain.AccountProfile{
		ServerURL: "http://other.test", Username: "carol", DeviceID: 1, Token: "tok-c",
	}))

	t.Cleanup(func() { cfg, username, deviceID, wire = app.DefaultConfig(), "", 1, nil })
	cfg = app.DefaultConfig()
	cfg.Home = home
	cfg.RelayURL = "http://relay.test"
	w, err := app.NewWire(cfg, nil)
	require.NoError(t, err)
	wire, username, deviceID = w, "", 1

	require.NoError(t, adoptSoleAccount(accounts, false))
	require.Equal(t, "alice", username)
	require.Equal(t, uint32(3), deviceID)
	require.Equal(t, "tok-a", wire.Relay.Token())

	require.NoError(t, accounts.SaveAccountProfile(domain.AccountProfile{
		ServerURL: "http://relay.test", Username: "bob", DeviceID: 1, Token: "tok-b",
	}))
	username = ""
	require.NoError(t, adoptSoleAccount(accounts, false))
	require.Empty(t, username)
}
