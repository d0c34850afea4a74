package accounts

// Plan filters a batch of fetch requests down to the subset that still needs
// network data, consulting the current store state. Planning never errors:
// malformed requests (neither address nor username) are skipped, reserved
// targets are dropped unconditionally, and requests that reduce to "nothing
// to fetch" are removed from the output.
//
// Requests whose key is already cached are rewritten to the cached canonical
// identifiers so the gateway always receives canonical addresses.
func (e *Engine) Plan(reqs []FetchRequest) []FetchRequest {
	out := make([]FetchRequest, 0, len(reqs))
	for _, req := range reqs {
		target := req.Address
		if target == "" {
			target = req.Username
		}
		if target == "" {
			continue
		}
		if IsReserved(target) {
			continue
		}

		key, resolved := e.resolver.Resolve(target)
		if !resolved {
			// Unknown username: not yet cached, full fetch needed.
			out = append(out, req)
			continue
		}

		cached, ok := e.store.Get(key)
		if !ok {
			out = append(out, req)
			continue
		}

		// Rewrite the target to the cached canonical identifiers.
		req.Address = cached.Address
		req.Username = cached.Username

		req.ViewsToFetch = planViews(cached, req.ViewsToFetch)

		needSequence := req.FetchSequence && cached.Sequence == nil
		needBalance := req.FetchBalance && cached.Balance == nil
		if needSequence || needBalance || len(req.ViewsToFetch) > 0 || !cached.FetchedProfile {
			out = append(out, req)
		}
	}
	return out
}

// planViews keeps only the requested views that can still produce new data:
// views with no cached pagination, or whose cached pagination says there is
// more. A cached bookmark of BookmarkExhausted means "never refetch".
func planViews(cached *AccountRecord, views []ViewRequest) []ViewRequest {
	if len(views) == 0 {
		return nil
	}
	kept := make([]ViewRequest, 0, len(views))
	for _, v := range views {
		state, ok := cached.Views[v.ViewID]
		if !ok {
			kept = append(kept, v)
			continue
		}
		if state.Pagination.Bookmark == BookmarkExhausted {
			continue
		}
		if state.Pagination.HasMore {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
