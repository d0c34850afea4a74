package accounts

// Reserved pseudo-account names. They never participate in fetch planning or
// merging; reads return a fixed synthetic record.
const (
	ReservedMint  = "Mint"
	ReservedTotal = "Total"
	ReservedAll   = "All"
)

var reservedNames = map[string]struct{}{
	ReservedMint:  {},
	ReservedTotal: {},
	ReservedAll:   {},
}

// IsReserved reports whether name is one of the reserved pseudo-accounts.
func IsReserved(name string) bool {
	_, ok := reservedNames[name]
	return ok
}

// ReservedRecord returns the synthetic record for a reserved name. Every call
// returns a fresh copy so callers can never mutate the sentinel.
func ReservedRecord(name string) *AccountRecord {
	if !IsReserved(name) {
		return nil
	}
	return &AccountRecord{
		Address:        name,
		ChainAddress:   name,
		AccountNumber:  UnsetAccountNumber,
		FetchedProfile: true,
	}
}
