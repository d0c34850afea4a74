package accounts

// UnsetAccountNumber marks an account number that has never been fetched.
// A merged record never regresses a known non-negative number back to it.
const UnsetAccountNumber int64 = -1

// BookmarkExhausted is the pagination sentinel meaning "this view is fully
// paged out — never refetch". It is distinct from the empty bookmark, which
// means the view has never been fetched at all.
const BookmarkExhausted = "nil"

// ViewType tags which sub-resource list a view's ids index into.
type ViewType string

const (
	ViewActivity      ViewType = "activity"
	ViewReviews       ViewType = "reviews"
	ViewAnnouncements ViewType = "announcements"
	ViewListActivity  ViewType = "listActivity"
	ViewClaimAlerts   ViewType = "claimAlerts"
	ViewAuthCodes     ViewType = "authCodes"
	ViewBadgeBalances ViewType = "badgeBalances"
	ViewAddressLists  ViewType = "addressLists"
)

// Pagination is the cursor state of a single view.
type Pagination struct {
	Bookmark string `json:"bookmark"`
	HasMore  bool   `json:"hasMore"`
}

// ViewState is one named, independently paginated feed over a sub-resource
// list, scoped to one account and one filter set.
type ViewState struct {
	IDs        []string   `json:"ids"`
	Pagination Pagination `json:"pagination"`
	Type       ViewType   `json:"type"`
}

// Balance is the account's badge-denominated balance.
type Balance struct {
	Amount uint64 `json:"amount"`
	Denom  string `json:"denom"`
}

// ActivityEntry is one badge transfer in the account's activity feed.
type ActivityEntry struct {
	ID           string `json:"_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	CollectionID uint64 `json:"collectionId"`
	Amount       uint64 `json:"amount"`
	Timestamp    int64  `json:"timestamp"`
}

// ReviewEntry is one review left on the account.
type ReviewEntry struct {
	ID        string `json:"_id"`
	From      string `json:"from"`
	Stars     uint64 `json:"stars"`
	Review    string `json:"review"`
	Timestamp int64  `json:"timestamp"`
}

// AnnouncementEntry is one collection announcement relevant to the account.
type AnnouncementEntry struct {
	ID           string `json:"_id"`
	CollectionID uint64 `json:"collectionId"`
	Announcement string `json:"announcement"`
	Timestamp    int64  `json:"timestamp"`
}

// ListActivityEntry is one membership change on an address list the account
// appears in.
type ListActivityEntry struct {
	ID        string `json:"_id"`
	ListID    string `json:"listId"`
	Action    string `json:"action"`
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"`
}

// ClaimAlertEntry is one claim notification addressed to the account.
type ClaimAlertEntry struct {
	ID           string `json:"_id"`
	CollectionID uint64 `json:"collectionId"`
	Message      string `json:"message"`
	CreatedAt    int64  `json:"createdAt"`
}

// AuthCodeEntry is one signed authorization code stored for the account.
type AuthCodeEntry struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Signature   string `json:"signature"`
	CreatedAt   int64  `json:"createdAt"`
}

// BadgeBalanceEntry is one collected per-collection balance snapshot.
type BadgeBalanceEntry struct {
	ID           string `json:"_id"`
	CollectionID uint64 `json:"collectionId"`
	Amount       uint64 `json:"amount"`
	UpdatedAt    int64  `json:"updatedAt"`
}

// AddressListEntry is one address-list membership of the account.
type AddressListEntry struct {
	ID        string `json:"_id"`
	ListType  string `json:"listType"`
	UpdatedAt int64  `json:"updatedAt"`
}

// AccountRecord is the normalized per-address cache record. Optional scalar
// fields use pointers (or the UnsetAccountNumber sentinel) so "not yet
// fetched" is explicit rather than inferred from zero values.
type AccountRecord struct {
	Address      string `json:"address"`
	ChainAddress string `json:"chainAddress"`
	Username     string `json:"username,omitempty"`

	PublicKey      string   `json:"publicKey,omitempty"`
	Sequence       *uint64  `json:"sequence,omitempty"`
	AccountNumber  int64    `json:"accountNumber"`
	Balance        *Balance `json:"balance,omitempty"`
	ResolvedName   string   `json:"resolvedName,omitempty"`
	Airdropped     bool     `json:"airdropped"`
	FetchedProfile bool     `json:"fetchedProfile"`

	Activity      []ActivityEntry     `json:"activity,omitempty"`
	Reviews       []ReviewEntry       `json:"reviews,omitempty"`
	Announcements []AnnouncementEntry `json:"announcements,omitempty"`
	ListActivity  []ListActivityEntry `json:"listActivity,omitempty"`
	ClaimAlerts   []ClaimAlertEntry   `json:"claimAlerts,omitempty"`
	AuthCodes     []AuthCodeEntry     `json:"authCodes,omitempty"`
	BadgeBalances []BadgeBalanceEntry `json:"badgeBalances,omitempty"`
	AddressLists  []AddressListEntry  `json:"addressLists,omitempty"`

	Views map[string]ViewState `json:"views,omitempty"`
}

// Clone returns a deep copy of the record. The store hands out clones so
// readers can never mutate the committed copy.
func (r *AccountRecord) Clone() *AccountRecord {
	if r == nil {
		return nil
	}
	out := *r
	if r.Sequence != nil {
		seq := *r.Sequence
		out.Sequence = &seq
	}
	if r.Balance != nil {
		bal := *r.Balance
		out.Balance = &bal
	}
	out.Activity = append([]ActivityEntry(nil), r.Activity...)
	out.Reviews = append([]ReviewEntry(nil), r.Reviews...)
	out.Announcements = append([]AnnouncementEntry(nil), r.Announcements...)
	out.ListActivity = append([]ListActivityEntry(nil), r.ListActivity...)
	out.ClaimAlerts = append([]ClaimAlertEntry(nil), r.ClaimAlerts...)
	out.AuthCodes = append([]AuthCodeEntry(nil), r.AuthCodes...)
	out.BadgeBalances = append([]BadgeBalanceEntry(nil), r.BadgeBalances...)
	out.AddressLists = append([]AddressListEntry(nil), r.AddressLists...)
	if r.Views != nil {
		out.Views = make(map[string]ViewState, len(r.Views))
		for id, v := range r.Views {
			v.IDs = append([]string(nil), v.IDs...)
			out.Views[id] = v
		}
	}
	return &out
}

// FetchRequest describes one account's worth of data wanted from the remote
// indexer. Address and Username are mutually exclusive targets.
type FetchRequest struct {
	Address  string `json:"address,omitempty"`
	Username string `json:"username,omitempty"`

	FetchSequence bool `json:"fetchSequence,omitempty"`
	FetchBalance  bool `json:"fetchBalance,omitempty"`

	ViewsToFetch []ViewRequest `json:"viewsToFetch,omitempty"`
}

// ViewRequest asks for one page of a named view.
type ViewRequest struct {
	ViewID   string            `json:"viewId"`
	ViewType ViewType          `json:"viewType"`
	Bookmark string            `json:"bookmark"`
	Filters  map[string]string `json:"filters,omitempty"`
}
