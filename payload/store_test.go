package payload

import (
	"testing"

	"github.com/grovetools/extdev/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testOptions() SessionOptions {
	return SessionOptions{
		APIKey:    "api-key",
		AppTitle:  "Test App",
		URL:       "https://localhost:8000",
		StoreFqdn: "example.myshopify.com",
	}
}

func testStore(t *testing.T, uuids ...string) *Store {
	t.Helper()
	extensions := make([]core.Extension, 0, len(uuids))
	for _, uuid := range uuids {
		extensions = append(extensions, BuildExtensionPayload(core.ExtensionDescriptor{
			DevUUID: uuid,
			Type:    "checkout_ui_extension",
			Surface: core.SurfaceCheckout,
		}, testOptions()))
	}
	return NewStore(BuildApp(testOptions()), "example.myshopify.com", extensions)
}

func TestStoreFqdnSurvivesUpdates(t *testing.T) {
	store := testStore(t, "abc")
	assert.Equal(t, "example.myshopify.com", store.StoreFqdn())

	store.ApplyUpdate(core.UpdatePatch{App: &core.AppPatch{Title: strPtr("Renamed")}})
	assert.Equal(t, "example.myshopify.com", store.StoreFqdn(), "updates never move the session store")
}

func TestConnectedPayloadIsDeepCopy(t *testing.T) {
	store := testStore(t, "abc")

	snapshot := store.ConnectedPayload()
	snapshot.Extensions[0].Assets["main"] = core.Asset{Name: "tampered"}
	snapshot.App.Title = "tampered"

	fresh := store.ConnectedPayload()
	assert.Equal(t, "main", fresh.Extensions[0].Assets["main"].Name)
	assert.Equal(t, "Test App", fresh.App.Title)
}

func TestApplyUpdateBroadcastsSamePatch(t *testing.T) {
	store := testStore(t, "abc")

	var received []core.UpdatePatch
	unsubscribe := store.Subscribe(func(patch core.UpdatePatch) {
		received = append(received, patch)
	})
	defer unsubscribe()

	patch := core.UpdatePatch{
		Extensions: []core.ExtensionPatch{
			{UUID: "abc", Development: &core.DevelopmentPatch{Status: strPtr(core.StatusError)}},
		},
	}
	store.ApplyUpdate(patch)

	require.Len(t, received, 1)
	assert.Equal(t, patch, received[0], "subscribers get the patch, not the recomputed state")

	ext, ok := store.FindExtension("abc")
	require.True(t, ok)
	assert.Equal(t, core.StatusError, ext.Development.Status)
}

func TestApplyUpdateDropsUnknownUUID(t *testing.T) {
	store := testStore(t, "abc")

	store.ApplyUpdate(core.UpdatePatch{
		Extensions: []core.ExtensionPatch{{UUID: "ghost", Title: strPtr("never")}},
	})

	assert.Len(t, store.Extensions(), 1, "patches never create extensions")
	_, ok := store.FindExtension("ghost")
	assert.False(t, ok)
}

func TestApplyUpdateEmptyPatchNotifiesNobody(t *testing.T) {
	store := testStore(t, "abc")

	calls := 0
	defer store.Subscribe(func(core.UpdatePatch) { calls++ })()

	store.ApplyUpdate(core.UpdatePatch{})
	assert.Zero(t, calls)
}

func TestUnsubscribeRemovesExactlyThatSubscriber(t *testing.T) {
	store := testStore(t, "abc")

	first, second := 0, 0
	unsubFirst := store.Subscribe(func(core.UpdatePatch) { first++ })
	defer store.Subscribe(func(core.UpdatePatch) { second++ })()

	unsubFirst()
	store.ApplyUpdate(core.UpdatePatch{App: &core.AppPatch{Title: strPtr("x")}})

	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestLateJoinConsistency(t *testing.T) {
	// A client connecting after N patches must see the same state as a
	// client that connected at session start and applied all N patches.
	store := testStore(t, "abc", "def")

	earlyState := core.NewConsoleState()
	early := store.ConnectedPayload()
	earlyState.Replace(early.App, early.Store, early.Extensions)

	patches := []core.UpdatePatch{
		{App: &core.AppPatch{Title: strPtr("Renamed")}},
		{Extensions: []core.ExtensionPatch{{UUID: "abc", Development: &core.DevelopmentPatch{Status: strPtr(core.StatusError)}}}},
		{Extensions: []core.ExtensionPatch{{UUID: "def", Title: strPtr("Second")}, {UUID: "ghost", Title: strPtr("dropped")}}},
	}
	for _, patch := range patches {
		store.ApplyUpdate(patch)
		earlyState.ApplyPatch(patch)
	}

	lateState := core.NewConsoleState()
	late := store.ConnectedPayload()
	lateState.Replace(late.App, late.Store, late.Extensions)

	assert.Equal(t, earlyState, lateState)
}

func TestBuildExtensionPayloadURLs(t *testing.T) {
	ext := BuildExtensionPayload(core.ExtensionDescriptor{
		DevUUID:         "123abc",
		Type:            "checkout_ui_extension",
		Surface:         core.SurfaceCheckout,
		ExtensionPoints: []string{"Checkout::Dynamic::Render"},
	}, testOptions())

	assert.Equal(t, "https://localhost:8000/extensions/123abc", ext.Development.Root.URL)
	assert.Equal(t, "https://localhost:8000/extensions/123abc/assets/main.js", ext.Assets["main"].URL)
	require.Len(t, ext.Development.ExtensionPoints, 1)
	assert.Equal(t, core.SurfaceCheckout, ext.Development.ExtensionPoints[0].Surface)
	assert.Equal(t, core.StatusError, ext.Development.Status, "missing bundle reports an error status")
}

func TestSessionURLs(t *testing.T) {
	options := testOptions()
	assert.Equal(t, "https://localhost:8000/extensions", options.RootURL())
	assert.Equal(t, "wss://localhost:8000/extensions", options.WebsocketURL())
	assert.Equal(t, "https://localhost:8000/extensions/dev-console", options.DevConsoleURL())

	options.URL = "http://localhost:8000"
	assert.Equal(t, "ws://localhost:8000/extensions", options.WebsocketURL())
}
