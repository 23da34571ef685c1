package config

// mergeConfigs merges an override configuration into a base, field by
// field. Scalars win when non-zero; the extension list is merged by
// uuid, with unknown uuids appended.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	result.App = mergeApp(result.App, override.App)
	result.Store = mergeStore(result.Store, override.Store)
	result.Server = mergeServer(result.Server, override.Server)
	result.Extensions = mergeExtensions(result.Extensions, override.Extensions)

	return &result
}

func mergeApp(base, override AppConfig) AppConfig {
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.Title != "" {
		base.Title = override.Title
	}
	if override.ApplicationURL != "" {
		base.ApplicationURL = override.ApplicationURL
	}
	if override.Handle != "" {
		base.Handle = override.Handle
	}
	return base
}

func mergeStore(base, override StoreConfig) StoreConfig {
	if override.Fqdn != "" {
		base.Fqdn = override.Fqdn
	}
	if override.ID != "" {
		base.ID = override.ID
	}
	if override.CheckoutCartURL != "" {
		base.CheckoutCartURL = override.CheckoutCartURL
	}
	return base
}

func mergeServer(base, override ServerConfig) ServerConfig {
	if override.Addr != "" {
		base.Addr = override.Addr
	}
	if override.URL != "" {
		base.URL = override.URL
	}
	if override.PublicDir != "" {
		base.PublicDir = override.PublicDir
	}
	return base
}

func mergeExtensions(base, override []ExtensionConfig) []ExtensionConfig {
	if len(override) == 0 {
		return base
	}

	result := make([]ExtensionConfig, len(base))
	copy(result, base)

	index := make(map[string]int, len(result))
	for i, ext := range result {
		index[ext.UUID] = i
	}

	for _, ext := range override {
		if i, ok := index[ext.UUID]; ok {
			result[i] = mergeExtension(result[i], ext)
		} else {
			result = append(result, ext)
		}
	}
	return result
}

func mergeExtension(base, override ExtensionConfig) ExtensionConfig {
	if override.Type != "" {
		base.Type = override.Type
	}
	if override.Title != "" {
		base.Title = override.Title
	}
	if override.Version != "" {
		base.Version = override.Version
	}
	if override.Surface != "" {
		base.Surface = override.Surface
	}
	if override.OutputBundlePath != "" {
		base.OutputBundlePath = override.OutputBundlePath
	}
	if len(override.ExtensionPoints) > 0 {
		base.ExtensionPoints = override.ExtensionPoints
	}
	if override.Renderer.Name != "" {
		base.Renderer.Name = override.Renderer.Name
	}
	if override.Renderer.Version != "" {
		base.Renderer.Version = override.Renderer.Version
	}
	return base
}
