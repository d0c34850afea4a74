package accounts

import "reflect"

// shouldCommit decides whether a merged record is worth writing back.
// Merges are cheap; subscriber re-render propagation is not. A fetch that
// returned data identical to what is already cached produces no write and
// no change signal.
func shouldCommit(cached, merged *AccountRecord) bool {
	if cached == nil {
		return true
	}
	return !reflect.DeepEqual(cached, merged)
}
