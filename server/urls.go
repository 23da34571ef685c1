package server

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/grovetools/extdev/core"
	"github.com/grovetools/extdev/payload"
)

// Redirect url construction for the surfaces extensions render into.
// The dev server never renders an extension itself (post-purchase
// aside); it hands the browser a platform url carrying the extension's
// local address.

// redirectURL computes where a surface request for an extension should
// land, based on the extension's own surface.
func redirectURL(surface core.Surface, devUUID string, options payload.SessionOptions) (string, bool) {
	switch surface {
	case core.SurfaceCheckout:
		return checkoutRedirectURL(options)
	case core.SurfaceCustomerAccount:
		return customerAccountRedirectURL(devUUID, "", options)
	default:
		return adminRedirectURL(devUUID, "", options), true
	}
}

// extensionPointRedirectURL computes the redirect for a declared
// extension point target. An unknown target surface yields no route.
func extensionPointRedirectURL(target, devUUID string, options payload.SessionOptions) (string, bool) {
	switch core.SurfaceForTarget(target) {
	case core.SurfaceCheckout:
		return checkoutRedirectURL(options)
	case core.SurfaceAdmin:
		return adminRedirectURL(devUUID, target, options), true
	case core.SurfaceCustomerAccount:
		return customerAccountRedirectURL(devUUID, target, options)
	}
	return "", false
}

func adminRedirectURL(devUUID, target string, options payload.SessionOptions) string {
	redirect := fmt.Sprintf("https://%s/admin/extensions-dev?url=%s",
		options.StoreFqdn, url.QueryEscape(options.ExtensionURL(devUUID)))
	if target != "" {
		redirect += "&target=" + url.QueryEscape(target)
	}
	return redirect
}

func checkoutRedirectURL(options payload.SessionOptions) (string, bool) {
	if options.CheckoutCartURL == "" {
		return "", false
	}
	return fmt.Sprintf("https://%s/%s?dev=%s",
		options.StoreFqdn,
		strings.TrimPrefix(options.CheckoutCartURL, "/"),
		url.QueryEscape(options.RootURL())), true
}

func customerAccountRedirectURL(devUUID, target string, options payload.SessionOptions) (string, bool) {
	if options.StoreID == "" {
		return "", false
	}
	redirect := fmt.Sprintf("https://shopify.com/%s/account/extensions-development?origin=%s&extensionId=%s&source=CUSTOMER_ACCOUNT_EXTENSION",
		options.StoreID, url.QueryEscape(options.RootURL()), url.QueryEscape(devUUID))
	if target != "" {
		redirect += "&target=" + url.QueryEscape(target)
	}
	return redirect, true
}
