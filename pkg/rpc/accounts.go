package rpc

import (
	"context"
	"net/http"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/emblem-network/emblemx/pkg/accounts"
)

// DefaultMaxBatch is the largest request batch the indexing API accepts in a
// single call; larger plans are chunked and fetched in parallel.
const DefaultMaxBatch = 25

// Client is the remote fetch gateway over the indexing API. It implements
// accounts.Gateway.
type Client struct {
	http     *HTTPClient
	pool     pond.Pool
	maxBatch int
}

// ClientOpts configures a gateway client.
type ClientOpts struct {
	HTTP     Opts
	MaxBatch int
	// Parallelism caps concurrent chunk fetches for one cycle.
	Parallelism int
}

// NewClient creates a gateway client.
func NewClient(o ClientOpts) *Client {
	if o.MaxBatch <= 0 {
		o.MaxBatch = DefaultMaxBatch
	}
	if o.Parallelism <= 0 {
		o.Parallelism = 4
	}
	return &Client{
		http:     NewHTTPWithOpts(o.HTTP),
		pool:     pond.NewPool(o.Parallelism),
		maxBatch: o.MaxBatch,
	}
}

// batchRequest is the wire shape of one batched fetch call.
type batchRequest struct {
	Requests []accounts.FetchRequest `json:"requests"`
}

// batchResponse carries one payload per requested key. Payloads may be
// partial: a field the server did not fetch this cycle is simply absent.
type batchResponse struct {
	Accounts []*accountPayload `json:"accounts"`
}

// accountPayload wraps the record so an absent accountNumber on the wire
// maps to the unset sentinel instead of a valid zero.
type accountPayload struct {
	accounts.AccountRecord
	AccountNumber *int64 `json:"accountNumber"`
}

func (p *accountPayload) record() *accounts.AccountRecord {
	rec := p.AccountRecord
	if p.AccountNumber != nil {
		rec.AccountNumber = *p.AccountNumber
	} else {
		rec.AccountNumber = accounts.UnsetAccountNumber
	}
	return &rec
}

// FetchBatch issues one batched call per chunk of planned requests and
// returns the raw account payloads. Chunks are fetched in parallel on the
// shared worker pool; any chunk failure fails the whole cycle so the caller
// commits nothing partial.
func (c *Client) FetchBatch(ctx context.Context, reqs []accounts.FetchRequest) ([]*accounts.AccountRecord, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	chunks := chunkRequests(reqs, c.maxBatch)
	results := make([][]*accounts.AccountRecord, len(chunks))

	group := c.pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	var mu sync.Mutex
	for i, chunk := range chunks {
		i, chunk := i, chunk
		group.SubmitErr(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			var resp batchResponse
			if err := c.http.doJSON(groupCtx, http.MethodPost, accountsBatchPath, batchRequest{Requests: chunk}, &resp); err != nil {
				return err
			}
			recs := make([]*accounts.AccountRecord, 0, len(resp.Accounts))
			for _, p := range resp.Accounts {
				if p == nil {
					continue
				}
				recs = append(recs, p.record())
			}
			mu.Lock()
			results[i] = recs
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make([]*accounts.AccountRecord, 0, len(reqs))
	for _, recs := range results {
		out = append(out, recs...)
	}
	return out, nil
}

// Health pings the indexing API status endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.http.doJSON(ctx, http.MethodGet, statusPath, nil, nil)
}

func chunkRequests(reqs []accounts.FetchRequest, size int) [][]accounts.FetchRequest {
	chunks := make([][]accounts.FetchRequest, 0, (len(reqs)+size-1)/size)
	for start := 0; start < len(reqs); start += size {
		end := start + size
		if end > len(reqs) {
			end = len(reqs)
		}
		chunks = append(chunks, reqs[start:end])
	}
	return chunks
}
