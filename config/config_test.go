package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
version = "1"

[app]
api_key = "api-key"
title = "Test App"

[store]
fqdn = "example.myshopify.com"
checkout_cart_url = "cart/123:1"

[server]
addr = ":8000"
url = "https://localhost:8000"

[[extensions]]
uuid = "abc"
type = "checkout_ui_extension"
title = "Checkout Ext"
output_bundle_path = "build/main.js"
extension_points = ["Checkout::Dynamic::Render"]

[extensions.renderer]
name = "@shopify/checkout-ui-extensions"
version = "0.14.0"
`

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), ConfigFileName, sampleConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "api-key", cfg.App.APIKey)
	assert.Equal(t, "example.myshopify.com", cfg.Store.Fqdn)
	require.Len(t, cfg.Extensions, 1)
	assert.Equal(t, "abc", cfg.Extensions[0].UUID)
	assert.Equal(t, "@shopify/checkout-ui-extensions", cfg.Extensions[0].Renderer.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), ConfigFileName))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("EXTDEV_TEST_KEY", "from-env")
	content := `
[app]
api_key = "${EXTDEV_TEST_KEY}"

[store]
fqdn = "example.myshopify.com"
`
	cfg, err := Load(writeConfig(t, t.TempDir(), ConfigFileName, content))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.App.APIKey)
}

func TestLoadAppliesDefaults(t *testing.T) {
	content := `
[app]
api_key = "api-key"

[store]
fqdn = "example.myshopify.com"
`
	cfg, err := Load(writeConfig(t, t.TempDir(), ConfigFileName, content))
	require.NoError(t, err)
	assert.Equal(t, "1", cfg.Version)
	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Server.URL)
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	content := `
[app]
title = "No Key"

[store]
fqdn = "example.myshopify.com"
`
	_, err := Load(writeConfig(t, t.TempDir(), ConfigFileName, content))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
}

func TestLoadRejectsDuplicateUUIDs(t *testing.T) {
	content := sampleConfig + `
[[extensions]]
uuid = "abc"
type = "checkout_ui_extension"
output_bundle_path = "build/other.js"
`
	_, err := Load(writeConfig(t, t.TempDir(), ConfigFileName, content))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
	assert.Contains(t, err.Error(), "duplicate extension uuid")
}

func TestLoadRejectsUnknownSurface(t *testing.T) {
	content := `
[app]
api_key = "api-key"

[store]
fqdn = "example.myshopify.com"

[[extensions]]
uuid = "abc"
type = "checkout_ui_extension"
surface = "somewhere-else"
output_bundle_path = "build/main.js"
`
	_, err := Load(writeConfig(t, t.TempDir(), ConfigFileName, content))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigValidation, errors.GetCode(err))
}

func TestLoadWithOverrides(t *testing.T) {
	dir := t.TempDir()
	base := writeConfig(t, dir, ConfigFileName, sampleConfig)
	writeConfig(t, dir, "extdev.override.toml", `
[server]
url = "https://tunnel.example.com"

[[extensions]]
uuid = "abc"
title = "Overridden Title"

[[extensions]]
uuid = "def"
type = "product_subscription"
output_bundle_path = "build/def.js"
`)

	cfg, err := LoadWithOverrides(base)
	require.NoError(t, err)

	assert.Equal(t, "https://tunnel.example.com", cfg.Server.URL)
	assert.Equal(t, ":8000", cfg.Server.Addr, "unset override fields keep the base value")

	require.Len(t, cfg.Extensions, 2)
	assert.Equal(t, "Overridden Title", cfg.Extensions[0].Title)
	assert.Equal(t, "build/main.js", cfg.Extensions[0].OutputBundlePath)
	assert.Equal(t, "def", cfg.Extensions[1].UUID)
}

func TestFindConfigFileWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, ConfigFileName, sampleConfig)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))

	found, err := FindConfigFile(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ConfigFileName), found)
}

func TestFindConfigFileNotFound(t *testing.T) {
	_, err := FindConfigFile(t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
}

func TestSessionOptions(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), ConfigFileName, sampleConfig))
	require.NoError(t, err)

	opts := cfg.SessionOptions()
	assert.Equal(t, "api-key", opts.APIKey)
	assert.Equal(t, "Test App", opts.AppTitle)
	assert.Equal(t, "https://localhost:8000", opts.URL)
	assert.Equal(t, "example.myshopify.com", opts.StoreFqdn)
	assert.Equal(t, "cart/123:1", opts.CheckoutCartURL)
}

func TestDescriptorsDeriveSurfaceFromExtensionPoints(t *testing.T) {
	cfg, err := Load(writeConfig(t, t.TempDir(), ConfigFileName, sampleConfig))
	require.NoError(t, err)

	descriptors := cfg.Descriptors()
	require.Len(t, descriptors, 1)
	assert.Equal(t, core.SurfaceCheckout, descriptors[0].Surface)
	assert.Equal(t, []string{"Checkout::Dynamic::Render"}, descriptors[0].ExtensionPoints)
	assert.Equal(t, "@shopify/checkout-ui-extensions", descriptors[0].Renderer.Name)
}

func TestMergeConfigsScalars(t *testing.T) {
	base := &Config{Version: "1", App: AppConfig{APIKey: "key", Title: "Base"}}
	override := &Config{App: AppConfig{Title: "Override"}}

	merged := mergeConfigs(base, override)
	assert.Equal(t, "key", merged.App.APIKey)
	assert.Equal(t, "Override", merged.App.Title)
	assert.Equal(t, "1", merged.Version)
}
