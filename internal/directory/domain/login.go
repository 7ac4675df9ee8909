package domain

// LoginBinding links an external-provider identity to exactly one user.
// The (Provider, ProviderKey) pair is unique across the whole directory.
type LoginBinding struct {
	Provider    string
	ProviderKey string
	DisplayName string
}
