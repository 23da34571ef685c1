package core

// Clone returns a deep copy of the extension. Snapshots handed to
// clients must not share maps or slices with the authoritative state.
func (e Extension) Clone() Extension {
	clone := e
	if e.Assets != nil {
		clone.Assets = make(map[string]Asset, len(e.Assets))
		for name, asset := range e.Assets {
			clone.Assets[name] = asset
		}
	}
	if e.Development.ExtensionPoints != nil {
		points := make([]ExtensionPoint, len(e.Development.ExtensionPoints))
		copy(points, e.Development.ExtensionPoints)
		clone.Development.ExtensionPoints = points
	}
	if e.User.Metafields != nil {
		metafields := make([]Metafield, len(e.User.Metafields))
		copy(metafields, e.User.Metafields)
		clone.User.Metafields = metafields
	}
	return clone
}

// Clone returns a deep copy of the app.
func (a *App) Clone() *App {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Installation != nil {
		installation := *a.Installation
		clone.Installation = &installation
	}
	return &clone
}

// CloneExtensions deep-copies a payload slice.
func CloneExtensions(extensions []Extension) []Extension {
	clones := make([]Extension, len(extensions))
	for i, ext := range extensions {
		clones[i] = ext.Clone()
	}
	return clones
}
