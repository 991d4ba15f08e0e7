package hybrid

// SignatureOptions controls JWS header assembly and the compact
// serialization variant
type SignatureOptions struct {
	// Kid overrides the header kid; defaults to the method id
	Kid string
	// B64, when explicitly false, selects unencoded payload semantics (RFC 7797)
	B64 *bool
	// Typ overrides the header typ; defaults to "JWT"
	Typ string
	// Cty sets the content type header when non-empty
	Cty string
	// URL sets the url header when non-empty
	URL string
	// Nonce sets the nonce header when non-empty
	Nonce string
	// DetachedPayload omits the payload segment from the serialization
	DetachedPayload bool
	// CustomHeaderParameters are carried flat in the protected header
	CustomHeaderParameters map[string]interface{}
}
