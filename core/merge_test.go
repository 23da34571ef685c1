package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(i int64) *int64 { return &i }

func testExtension(uuid string) Extension {
	return Extension{
		Type:    "checkout_ui_extension",
		UUID:    uuid,
		Version: "1.0.0",
		Surface: SurfaceCheckout,
		Title:   "Test Extension",
		Assets: map[string]Asset{
			"main": {Name: "main", URL: "http://localhost:8000/extensions/" + uuid + "/assets/main.js", LastUpdated: 1},
		},
		Development: Development{
			Status:   StatusSuccess,
			Root:     URL{URL: "http://localhost:8000/extensions/" + uuid},
			Renderer: Renderer{Name: "checkout-ui-extensions", Version: "0.14.0"},
		},
	}
}

func TestMergeAppOverExisting(t *testing.T) {
	base := &App{ID: "1", APIKey: "key", Title: "Original", ApplicationURL: "https://app.example.com"}

	merged := MergeApp(base, &AppPatch{Title: strPtr("Renamed")})

	assert.Equal(t, "Renamed", merged.Title)
	assert.Equal(t, "key", merged.APIKey, "absent fields keep prior values")
	assert.Equal(t, "https://app.example.com", merged.ApplicationURL)
	assert.Equal(t, "Original", base.Title, "base is not mutated")
}

func TestMergeAppCreatesWhenBaseMissing(t *testing.T) {
	merged := MergeApp(nil, &AppPatch{APIKey: strPtr("key"), Title: strPtr("New App")})

	require.NotNil(t, merged)
	assert.Equal(t, "key", merged.APIKey)
	assert.Equal(t, "New App", merged.Title)
}

func TestMergeAppNilPatchIsNoop(t *testing.T) {
	base := &App{APIKey: "key"}
	assert.Same(t, base, MergeApp(base, nil))
}

func TestMergeExtensionNestedFields(t *testing.T) {
	ext := testExtension("abc")

	MergeExtension(&ext, ExtensionPatch{
		UUID:  "abc",
		Title: strPtr("Updated"),
		Assets: map[string]AssetPatch{
			"main": {LastUpdated: int64Ptr(42)},
		},
		Development: &DevelopmentPatch{
			Status:   strPtr(StatusError),
			Hidden:   boolPtr(true),
			Resource: &URLPatch{URL: strPtr("/cart/1:1")},
		},
	})

	assert.Equal(t, "Updated", ext.Title)
	assert.Equal(t, int64(42), ext.Assets["main"].LastUpdated)
	assert.Equal(t, "main", ext.Assets["main"].Name, "untouched asset fields survive")
	assert.Equal(t, StatusError, ext.Development.Status)
	assert.True(t, ext.Development.Hidden)
	assert.Equal(t, "/cart/1:1", ext.Development.Resource.URL)
	assert.Equal(t, "checkout-ui-extensions", ext.Development.Renderer.Name, "renderer untouched")
}

func TestApplyPatchDropsUnknownUUID(t *testing.T) {
	state := NewConsoleState()
	state.Replace(nil, "example.myshopify.com", []Extension{testExtension("known")})

	dropped := state.ApplyPatch(UpdatePatch{
		Extensions: []ExtensionPatch{
			{UUID: "known", Title: strPtr("Changed")},
			{UUID: "ghost", Title: strPtr("Never applied")},
		},
	})

	assert.Equal(t, []string{"ghost"}, dropped)
	require.Len(t, state.Extensions, 1, "patches never create extensions")
	assert.Equal(t, "Changed", state.Extensions[0].Title)
}

func TestApplyPatchIsIdempotent(t *testing.T) {
	patch := UpdatePatch{
		App: &AppPatch{Title: strPtr("Patched")},
		Extensions: []ExtensionPatch{
			{UUID: "abc", Development: &DevelopmentPatch{Status: strPtr(StatusError)}},
		},
	}

	once := NewConsoleState()
	once.Replace(&App{APIKey: "key"}, "store", []Extension{testExtension("abc")})
	twice := NewConsoleState()
	twice.Replace(&App{APIKey: "key"}, "store", []Extension{testExtension("abc")})

	once.ApplyPatch(patch)
	twice.ApplyPatch(patch)
	twice.ApplyPatch(patch)

	assert.Equal(t, once, twice)
}

func TestReplaceNormalizesNilExtensions(t *testing.T) {
	state := NewConsoleState()
	state.Replace(nil, "store", nil)
	assert.NotNil(t, state.Extensions)
	assert.Empty(t, state.Extensions)
}

func TestSurfaceForTarget(t *testing.T) {
	cases := []struct {
		target string
		want   Surface
	}{
		{"Checkout::Dynamic::Render", SurfaceCheckout},
		{"checkout.dynamic.render", SurfaceCheckout},
		{"Admin::CheckoutEditor::RenderSettings", SurfaceAdmin},
		{"admin.checkout-editor.render-settings", SurfaceAdmin},
		{"CustomerAccount::FullPage::RenderWithin", SurfaceCustomerAccount},
		{"customer-account.page.render", SurfaceCustomerAccount},
		{"ABC", ""},
		{"SomeOtherArea::Test::Extension", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SurfaceForTarget(tc.target), tc.target)
	}
}
