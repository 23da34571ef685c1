package core

// Explicit per-field merge functions for every patchable type. A nil
// pointer leaves the prior value in place; a non-nil pointer overwrites.
// Merges are field overwrites, never increments, so applying the same
// patch twice yields the same state as applying it once.

// MergeApp merges a patch over base and returns the result. When base
// is nil the patch's set fields become the new app.
func MergeApp(base *App, patch *AppPatch) *App {
	if patch == nil {
		return base
	}
	app := App{}
	if base != nil {
		app = *base
	}
	if patch.ID != nil {
		app.ID = *patch.ID
	}
	if patch.APIKey != nil {
		app.APIKey = *patch.APIKey
	}
	if patch.ApplicationURL != nil {
		app.ApplicationURL = *patch.ApplicationURL
	}
	if patch.Handle != nil {
		app.Handle = *patch.Handle
	}
	if patch.Title != nil {
		app.Title = *patch.Title
	}
	if patch.Icon != nil {
		app.Icon = mergeURL(app.Icon, patch.Icon)
	}
	if patch.Installation != nil {
		installation := *patch.Installation
		app.Installation = &installation
	}
	if patch.SupportEmail != nil {
		app.SupportEmail = *patch.SupportEmail
	}
	return &app
}

func mergeURL(base URL, patch *URLPatch) URL {
	if patch == nil {
		return base
	}
	if patch.URL != nil {
		base.URL = *patch.URL
	}
	return base
}

func mergeRenderer(base Renderer, patch *RendererPatch) Renderer {
	if patch == nil {
		return base
	}
	if patch.Name != nil {
		base.Name = *patch.Name
	}
	if patch.Version != nil {
		base.Version = *patch.Version
	}
	return base
}

func mergeAsset(base Asset, patch AssetPatch) Asset {
	if patch.Name != nil {
		base.Name = *patch.Name
	}
	if patch.URL != nil {
		base.URL = *patch.URL
	}
	if patch.LastUpdated != nil {
		base.LastUpdated = *patch.LastUpdated
	}
	return base
}

func mergeDevelopment(base Development, patch *DevelopmentPatch) Development {
	if patch == nil {
		return base
	}
	if patch.Hidden != nil {
		base.Hidden = *patch.Hidden
	}
	if patch.Status != nil {
		base.Status = *patch.Status
	}
	if patch.Focused != nil {
		base.Focused = *patch.Focused
	}
	base.Resource = mergeURL(base.Resource, patch.Resource)
	base.Root = mergeURL(base.Root, patch.Root)
	base.Renderer = mergeRenderer(base.Renderer, patch.Renderer)
	if patch.ExtensionPoints != nil {
		points := make([]ExtensionPoint, len(patch.ExtensionPoints))
		copy(points, patch.ExtensionPoints)
		base.ExtensionPoints = points
	}
	return base
}

// MergeExtension applies a delta to an existing extension in place.
func MergeExtension(dst *Extension, patch ExtensionPatch) {
	if patch.Type != nil {
		dst.Type = *patch.Type
	}
	if patch.Version != nil {
		dst.Version = *patch.Version
	}
	if patch.Surface != nil {
		dst.Surface = *patch.Surface
	}
	if patch.Title != nil {
		dst.Title = *patch.Title
	}
	if len(patch.Assets) > 0 {
		if dst.Assets == nil {
			dst.Assets = make(map[string]Asset, len(patch.Assets))
		}
		for name, assetPatch := range patch.Assets {
			dst.Assets[name] = mergeAsset(dst.Assets[name], assetPatch)
		}
	}
	dst.Development = mergeDevelopment(dst.Development, patch.Development)
}

// ApplyPatch merges an update patch into the state and returns the
// UUIDs of deltas that matched no existing extension. Unmatched deltas
// are dropped: new extensions only arrive via a connected snapshot.
func (s *ConsoleState) ApplyPatch(patch UpdatePatch) (dropped []string) {
	if patch.App != nil {
		s.App = MergeApp(s.App, patch.App)
	}
	for _, delta := range patch.Extensions {
		existing := s.FindExtension(delta.UUID)
		if existing == nil {
			dropped = append(dropped, delta.UUID)
			continue
		}
		MergeExtension(existing, delta)
	}
	return dropped
}

// Replace overwrites the whole state with a connected snapshot.
func (s *ConsoleState) Replace(app *App, store string, extensions []Extension) {
	s.App = app
	s.Store = store
	if extensions == nil {
		extensions = []Extension{}
	}
	s.Extensions = extensions
}
