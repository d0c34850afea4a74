package accounts

import "sort"

// feedEntry is satisfied by every sub-resource list entry: a stable
// identifier plus the timestamp the feed is ordered by.
type feedEntry interface {
	EntryID() string
	EntryTime() int64
}

func (e ActivityEntry) EntryID() string      { return e.ID }
func (e ActivityEntry) EntryTime() int64     { return e.Timestamp }
func (e ReviewEntry) EntryID() string        { return e.ID }
func (e ReviewEntry) EntryTime() int64       { return e.Timestamp }
func (e AnnouncementEntry) EntryID() string  { return e.ID }
func (e AnnouncementEntry) EntryTime() int64 { return e.Timestamp }
func (e ListActivityEntry) EntryID() string  { return e.ID }
func (e ListActivityEntry) EntryTime() int64 { return e.Timestamp }
func (e ClaimAlertEntry) EntryID() string    { return e.ID }
func (e ClaimAlertEntry) EntryTime() int64   { return e.CreatedAt }
func (e AuthCodeEntry) EntryID() string      { return e.ID }
func (e AuthCodeEntry) EntryTime() int64     { return e.CreatedAt }
func (e BadgeBalanceEntry) EntryID() string  { return e.ID }
func (e BadgeBalanceEntry) EntryTime() int64 { return e.UpdatedAt }
func (e AddressListEntry) EntryID() string   { return e.ID }
func (e AddressListEntry) EntryTime() int64  { return e.UpdatedAt }

// mergeFeed concatenates cached-then-incoming, dedups by entry id keeping the
// first occurrence (so on conflict the cached copy wins), and sorts by
// descending timestamp with the entry id as a deterministic tie-break.
func mergeFeed[T feedEntry](cached, incoming []T) []T {
	if len(cached) == 0 && len(incoming) == 0 {
		return nil
	}
	out := make([]T, 0, len(cached)+len(incoming))
	seen := make(map[string]struct{}, len(cached)+len(incoming))
	for _, src := range [][]T{cached, incoming} {
		for _, e := range src {
			if _, dup := seen[e.EntryID()]; dup {
				continue
			}
			seen[e.EntryID()] = struct{}{}
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].EntryTime(), out[j].EntryTime()
		if ti != tj {
			return ti > tj
		}
		return out[i].EntryID() < out[j].EntryID()
	})
	return out
}

// mergeIDs unions cached-then-incoming id sequences, dropping duplicates
// while preserving first-seen order. An empty union is nil, matching the
// shape view ids take everywhere else, so re-merging a duplicate payload
// stays structurally identical.
func mergeIDs(cached, incoming []string) []string {
	if len(cached) == 0 && len(incoming) == 0 {
		return nil
	}
	out := make([]string, 0, len(cached)+len(incoming))
	seen := make(map[string]struct{}, len(cached)+len(incoming))
	for _, src := range [][]string{cached, incoming} {
		for _, id := range src {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

// Merge combines a freshly fetched payload with the cached record for the
// same key. It is total (a nil cached side merges against an empty record)
// and never mutates either input.
//
// Scalar precedence: publicKey keeps the cached value when present;
// airdropped is true if either side is; sequence takes the incoming value
// when provided because sequence fetches are explicit and monotonic;
// accountNumber never regresses a known non-negative value to unset;
// resolvedName takes a non-empty incoming value.
func Merge(cached, incoming *AccountRecord) *AccountRecord {
	if incoming == nil {
		incoming = &AccountRecord{AccountNumber: UnsetAccountNumber}
	}
	if cached == nil {
		cached = &AccountRecord{AccountNumber: UnsetAccountNumber}
	}

	out := &AccountRecord{
		Address:        firstNonEmpty(incoming.Address, cached.Address),
		ChainAddress:   firstNonEmpty(incoming.ChainAddress, cached.ChainAddress),
		Username:       firstNonEmpty(incoming.Username, cached.Username),
		PublicKey:      firstNonEmpty(cached.PublicKey, incoming.PublicKey),
		ResolvedName:   firstNonEmpty(incoming.ResolvedName, cached.ResolvedName),
		Airdropped:     cached.Airdropped || incoming.Airdropped,
		FetchedProfile: cached.FetchedProfile || incoming.FetchedProfile,
	}

	switch {
	case incoming.Sequence != nil:
		seq := *incoming.Sequence
		out.Sequence = &seq
	case cached.Sequence != nil:
		seq := *cached.Sequence
		out.Sequence = &seq
	}

	switch {
	case incoming.AccountNumber >= 0:
		out.AccountNumber = incoming.AccountNumber
	case cached.AccountNumber >= 0:
		out.AccountNumber = cached.AccountNumber
	default:
		out.AccountNumber = UnsetAccountNumber
	}

	switch {
	case incoming.Balance != nil:
		bal := *incoming.Balance
		out.Balance = &bal
	case cached.Balance != nil:
		bal := *cached.Balance
		out.Balance = &bal
	}

	out.Activity = mergeFeed(cached.Activity, incoming.Activity)
	out.Reviews = mergeFeed(cached.Reviews, incoming.Reviews)
	out.Announcements = mergeFeed(cached.Announcements, incoming.Announcements)
	out.ListActivity = mergeFeed(cached.ListActivity, incoming.ListActivity)
	out.ClaimAlerts = mergeFeed(cached.ClaimAlerts, incoming.ClaimAlerts)
	out.AuthCodes = mergeFeed(cached.AuthCodes, incoming.AuthCodes)
	out.BadgeBalances = mergeFeed(cached.BadgeBalances, incoming.BadgeBalances)
	out.AddressLists = mergeFeed(cached.AddressLists, incoming.AddressLists)

	out.Views = mergeViews(cached.Views, incoming.Views)

	return out
}

// mergeViews unions the id sequences per view (cached ids first) and replaces
// pagination and type wholesale with the incoming view's values: the latest
// fetch is authoritative for where to continue. Views untouched by this
// fetch pass through unchanged.
func mergeViews(cached, incoming map[string]ViewState) map[string]ViewState {
	if len(cached) == 0 && len(incoming) == 0 {
		return nil
	}
	out := make(map[string]ViewState, len(cached)+len(incoming))
	for id, v := range cached {
		v.IDs = append([]string(nil), v.IDs...)
		out[id] = v
	}
	for id, in := range incoming {
		merged := ViewState{
			IDs:        mergeIDs(out[id].IDs, in.IDs),
			Pagination: in.Pagination,
			Type:       in.Type,
		}
		out[id] = merged
	}
	return out
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
