package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"axolotl/internal/app"
	"axolotl/internal/domain"
	"axolotl/internal/protocol/session"
	"axolotl/internal/relayserver"
	"axolotl/internal/store"
)

const pass = "Tr0ub4dor&3-horse"

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func relayURL(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := relayserver.New(
		relayserver.NewMemoryBackend(),
		relayserver.NewTokens("0123456789abcdef0123456789abcdef", time.Hour),
		quiet(),
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts.URL
}

func wire(t *testing.T, home, url string) *app.Wire {
	t.Helper()
	w, err := app.NewWire(app.Config{
		Home:     home,
		RelayURL: url,
		Limits:   session.DefaultLimits(),
		LogLevel: "info",
	}, quiet())
	require.NoError(t, err)
	w.Keyring.WithScryptParams(store.ScryptParams{N: 1 << 10, R: 8, P: 1})
	return w
}

// enrol creates an identity, registers addr and publishes a bundle.
func enrol(t *testing.T, w *app.Wire, addr domain.Address) *app.App {
	t.Helper()
	ctx := context.Background()
	_, _, err := w.Identity.GenerateIdentity(pass)
	require.NoError(t, err)
	a, err := w.Open(ctx, pass)
	require.NoError(t, err)

	tok, err := w.Relay.Register(ctx, addr)
	require.NoError(t, err)
	require.NoError(t, w.Accounts.SaveAccountProfile(domain.AccountProfile{
		ServerURL: w.Config.RelayURL, Username: addr.Name, DeviceID: addr.DeviceID, Token: tok,
	}))

	_, err = a.PreKeys.GenerateSignedPreKey()
	require.NoError(t, err)
	_, err = a.PreKeys.GeneratePreKeys(3)
	require.NoError(t, err)
	b, err := a.PreKeys.PublishedBundle(addr.Name, addr.DeviceID)
	require.NoError(t, err)
	require.NoError(t, w.Relay.PublishBundle(ctx, b))
	return a
}

func TestApp_ConversationAcrossRestart(t *testing.T) {
	ctx := context.Background()
	url := relayURL(t)
	aliceAddr := domain.Address{Name: "alice", DeviceID: 1}
	bobAddr := domain.Address{Name: "bob", DeviceID: 1}
	aliceHome, bobHome := t.TempDir(), t.TempDir()

	alice := enrol(t, wire(t, aliceHome, url), aliceAddr)
	bob := enrol(t, wire(t, bobHome, url), bobAddr)

	require.NoError(t, alice.Messages.SendMessage(ctx, aliceAddr, bobAddr, []byte("hello bob")))
	got, err := bob.Messages.ReceiveMessages(ctx, bobAddr, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hello bob", string(got[0].Plaintext))

	// Bob restarts: everything comes back from disk.
	bw := wire(t, bobHome, url)
	prof, ok, err := bw.Accounts.LoadAccountProfile(url, "bob")
	require.NoError(t, err)
	require.True(t, ok)
	bw.Relay.SetToken(prof.Token)
	bob2, err := bw.Open(ctx, pass)
	require.NoError(t, err)
	defer bob2.Close()

	require.NoError(t, bob2.Messages.SendMessage(ctx, bobAddr, aliceAddr, []byte("hello alice")))
	got, err = alice.Messages.ReceiveMessages(ctx, aliceAddr, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "hello alice", string(got[0].Plaintext))
	require.Equal(t, bobAddr, got[0].From)
}

func TestWire_OpenWrongPassphrase(t *testing.T) {
	w := wire(t, t.TempDir(), "http://127.0.0.1:1")
	_, _, err := w.Identity.GenerateIdentity(pass)
	require.NoError(t, err)

	_, err = w.Open(context.Background(), "Wrong-passphrase-1")
	require.ErrorIs(t, err, store.ErrWrongPassphrase)
}

func TestConfig_Validate(t *testing.T) {
	good := app.Config{
		Home:     "/tmp/x",
		RelayURL: "http://127.0.0.1:8080",
		Limits:   session.DefaultLimits(),
		LogLevel: "debug",
	}
	require.NoError(t, good.Validate())

	noHome := good
	noHome.Home = ""
	require.Error(t, noHome.Validate())

	badURL := good
	badURL.RelayURL = "not a url"
	require.Error(t, badURL.Validate())

	badLimits := good
	badLimits.Limits.MaxFutureMessages = 0
	require.Error(t, badLimits.Validate())

	badLevel := good
	badLevel.LogLevel = "chatty"
	require.Error(t, badLevel.Validate())
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, app.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, app.ParseLevel("warning"))
	require.Equal(t, slog.LevelInfo, app.ParseLevel("whatever"))
}
