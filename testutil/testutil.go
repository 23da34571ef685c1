// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grovetools/extdev/core"
	"github.com/stretchr/testify/require"
)

// WriteBundle writes a build output file and returns its path.
func WriteBundle(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// Descriptor builds an extension descriptor whose bundle exists on
// disk, rooted in a fresh temp directory.
func Descriptor(t *testing.T, uuid string, surface core.Surface) core.ExtensionDescriptor {
	t.Helper()
	bundle := WriteBundle(t, t.TempDir(), "main.js", "console.log('"+uuid+"')")
	return core.ExtensionDescriptor{
		DevUUID:          uuid,
		Type:             "checkout_ui_extension",
		Title:            "Extension " + uuid,
		Version:          "0.1.0",
		Surface:          surface,
		OutputBundlePath: bundle,
	}
}
