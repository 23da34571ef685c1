package core

import "strings"

// SurfaceForTarget derives the rendering surface from an extension
// point target. Targets use either the legacy pascal-case convention
// ("Checkout::Dynamic::Render") or the dotted convention
// ("admin.checkout-editor.render-settings"). Unknown prefixes return
// the empty surface: no redirect route can be derived for them.
func SurfaceForTarget(target string) Surface {
	switch {
	case strings.HasPrefix(target, "Checkout::"), strings.HasPrefix(target, "checkout."):
		return SurfaceCheckout
	case strings.HasPrefix(target, "Admin::"), strings.HasPrefix(target, "admin."):
		return SurfaceAdmin
	case strings.HasPrefix(target, "CustomerAccount::"), strings.HasPrefix(target, "customer-account."):
		return SurfaceCustomerAccount
	case strings.HasPrefix(target, "PostPurchase::"), strings.HasPrefix(target, "post-purchase."):
		return SurfacePostPurchase
	}
	return ""
}

// HasExtensionPointTarget reports whether the extension declares the
// given extension point target.
func (e *Extension) HasExtensionPointTarget(target string) bool {
	for _, point := range e.Development.ExtensionPoints {
		if point.Target == target {
			return true
		}
	}
	return false
}
