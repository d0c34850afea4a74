package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint64) *uint64 { return &v }

// TestMerge_NilCached tests that merging against an absent record is total
func TestMerge_NilCached(t *testing.T) {
	incoming := &AccountRecord{
		Address:       "0xaa",
		Sequence:      uintPtr(5),
		AccountNumber: 7,
	}

	merged := Merge(nil, incoming)

	require.NotNil(t, merged)
	assert.Equal(t, "0xaa", merged.Address)
	require.NotNil(t, merged.Sequence)
	assert.Equal(t, uint64(5), *merged.Sequence)
	assert.Equal(t, int64(7), merged.AccountNumber)
}

// TestMerge_ScalarPrecedence tests the per-field precedence rules
func TestMerge_ScalarPrecedence(t *testing.T) {
	cached := &AccountRecord{
		PublicKey:     "cached-key",
		Sequence:      uintPtr(3),
		AccountNumber: 12,
		ResolvedName:  "cached.name",
		Airdropped:    false,
	}
	incoming := &AccountRecord{
		PublicKey:     "incoming-key",
		Sequence:      uintPtr(9),
		AccountNumber: UnsetAccountNumber,
		ResolvedName:  "",
		Airdropped:    true,
	}

	merged := Merge(cached, incoming)

	// publicKey: cached wins when present
	assert.Equal(t, "cached-key", merged.PublicKey)
	// sequence: incoming is authoritative when provided
	require.NotNil(t, merged.Sequence)
	assert.Equal(t, uint64(9), *merged.Sequence)
	// accountNumber: never regresses a known value to unset
	assert.Equal(t, int64(12), merged.AccountNumber)
	// resolvedName: incoming only when non-empty
	assert.Equal(t, "cached.name", merged.ResolvedName)
	// airdropped: true if either side is
	assert.True(t, merged.Airdropped)
}

// TestMerge_SequenceFallsBackToCached tests sequence retention when the
// incoming payload did not fetch it
func TestMerge_SequenceFallsBackToCached(t *testing.T) {
	cached := &AccountRecord{Sequence: uintPtr(4), AccountNumber: UnsetAccountNumber}
	incoming := &AccountRecord{AccountNumber: UnsetAccountNumber}

	merged := Merge(cached, incoming)

	require.NotNil(t, merged.Sequence)
	assert.Equal(t, uint64(4), *merged.Sequence)
	assert.Equal(t, UnsetAccountNumber, merged.AccountNumber)
}

// TestMerge_ListConflictCachedWins tests the first-occurrence-wins dedup
// policy: on id conflict the cached entry's content survives
func TestMerge_ListConflictCachedWins(t *testing.T) {
	cached := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Activity: []ActivityEntry{
			{ID: "1", Timestamp: 100, From: "0xaa", Amount: 1},
		},
	}
	incoming := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Activity: []ActivityEntry{
			{ID: "1", Timestamp: 200, From: "0xbb", Amount: 2},
		},
	}

	merged := Merge(cached, incoming)

	require.Len(t, merged.Activity, 1)
	assert.Equal(t, int64(100), merged.Activity[0].Timestamp)
	assert.Equal(t, "0xaa", merged.Activity[0].From)
}

// TestMerge_ListDedupAndOrder tests that merged feeds contain unique ids
// ordered by descending timestamp with the id as deterministic tie-break
func TestMerge_ListDedupAndOrder(t *testing.T) {
	cached := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Reviews: []ReviewEntry{
			{ID: "b", Timestamp: 50},
			{ID: "a", Timestamp: 50},
		},
	}
	incoming := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Reviews: []ReviewEntry{
			{ID: "c", Timestamp: 75},
			{ID: "b", Timestamp: 10},
		},
	}

	merged := Merge(cached, incoming)

	require.Len(t, merged.Reviews, 3)
	assert.Equal(t, "c", merged.Reviews[0].ID)
	// equal timestamps break ties on id
	assert.Equal(t, "a", merged.Reviews[1].ID)
	assert.Equal(t, "b", merged.Reviews[2].ID)
	// the duplicate "b" kept the cached timestamp
	assert.Equal(t, int64(50), merged.Reviews[2].Timestamp)
}

// TestMerge_Idempotent tests that re-merging the same payload changes nothing
func TestMerge_Idempotent(t *testing.T) {
	incoming := &AccountRecord{
		Address:       "0xaa",
		AccountNumber: 3,
		Activity: []ActivityEntry{
			{ID: "1", Timestamp: 100},
			{ID: "2", Timestamp: 200},
		},
		Views: map[string]ViewState{
			"feedA": {
				IDs:        []string{"2", "1"},
				Pagination: Pagination{Bookmark: "x", HasMore: true},
				Type:       ViewActivity,
			},
		},
	}

	once := Merge(nil, incoming)
	twice := Merge(once, incoming)

	assert.Equal(t, once, twice)
}

// TestMerge_ViewPaginationReplacedWholesale tests that the incoming view's
// pagination and type overwrite the cached cursor while ids union
func TestMerge_ViewPaginationReplacedWholesale(t *testing.T) {
	cached := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Views: map[string]ViewState{
			"feedA": {
				IDs:        []string{"a", "b"},
				Pagination: Pagination{Bookmark: "page1", HasMore: true},
				Type:       ViewActivity,
			},
			"untouched": {
				IDs:        []string{"z"},
				Pagination: Pagination{Bookmark: BookmarkExhausted, HasMore: false},
				Type:       ViewReviews,
			},
		},
	}
	incoming := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Views: map[string]ViewState{
			"feedA": {
				IDs:        []string{"b", "c"},
				Pagination: Pagination{Bookmark: "page2", HasMore: false},
				Type:       ViewActivity,
			},
		},
	}

	merged := Merge(cached, incoming)

	feedA := merged.Views["feedA"]
	assert.Equal(t, []string{"a", "b", "c"}, feedA.IDs)
	assert.Equal(t, Pagination{Bookmark: "page2", HasMore: false}, feedA.Pagination)

	// views not touched by this fetch pass through unchanged
	assert.Equal(t, cached.Views["untouched"], merged.Views["untouched"])
}

// TestMerge_DoesNotMutateInputs tests that both sides survive a merge intact
func TestMerge_DoesNotMutateInputs(t *testing.T) {
	cached := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Activity:      []ActivityEntry{{ID: "1", Timestamp: 100}},
		Views: map[string]ViewState{
			"feedA": {IDs: []string{"1"}, Type: ViewActivity},
		},
	}
	incoming := &AccountRecord{
		AccountNumber: UnsetAccountNumber,
		Activity:      []ActivityEntry{{ID: "2", Timestamp: 200}},
		Views: map[string]ViewState{
			"feedA": {IDs: []string{"2"}, Type: ViewActivity},
		},
	}
	cachedCopy := cached.Clone()
	incomingCopy := incoming.Clone()

	_ = Merge(cached, incoming)

	assert.Equal(t, cachedCopy, cached)
	assert.Equal(t, incomingCopy, incoming)
}
