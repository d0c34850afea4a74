package accounts

// AddressCodec is the narrow boundary to the chain's address rules. The
// engine never derives or validates addresses itself.
type AddressCodec interface {
	// IsValidAddress reports whether s is a syntactically valid chain address.
	IsValidAddress(s string) bool
	// ConvertToAddress canonicalizes a syntactically valid address.
	ConvertToAddress(s string) (string, error)
}

// Resolver normalizes a user-supplied address-or-username string into the
// canonical cache key. It is a pure function of the store's alias table.
type Resolver struct {
	store *Store
	codec AddressCodec
}

// NewResolver returns a resolver over the given store and codec.
func NewResolver(store *Store, codec AddressCodec) *Resolver {
	return &Resolver{store: store, codec: codec}
}

// Resolve maps addressOrUsername to a canonical key. Reserved names resolve
// to themselves. A valid chain address canonicalizes without touching the
// cache. Anything else is treated as a username; an unknown username returns
// ok == false, which downstream logic treats as "not yet cached", never as
// an error.
func (r *Resolver) Resolve(addressOrUsername string) (string, bool) {
	if addressOrUsername == "" {
		return "", false
	}
	if IsReserved(addressOrUsername) {
		return addressOrUsername, true
	}
	if r.codec.IsValidAddress(addressOrUsername) {
		canonical, err := r.codec.ConvertToAddress(addressOrUsername)
		if err != nil {
			return "", false
		}
		return canonical, true
	}
	return r.store.Alias(addressOrUsername)
}
