// Package provider bridges OAuth2 identity providers to local accounts.
//
// A [Client] exchanges an authorization code with golang.org/x/oauth2, fetches the
// provider's userinfo document and hands the raw attributes to the provider's
// [Extractor]. The supported providers form the closed [ID] set; anything else fails
// with [ErrUnknownProvider].
package provider
