// Package rpcpool holds N HTTP JSON-RPC peers validated against the
// expected chain id, random-selecting a peer per call, with an optional
// websocket peer for head subscriptions. It issues raw JSON-RPC calls
// rather than go-ethereum's typed ethclient accessors so the codec
// package can decode the wire shape directly (ethclient's typed
// transaction does not preserve the sender address carried on the wire).
package rpcpool

import (
	"context"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/csic-platform/evm-indexer/internal/chains"
	"github.com/csic-platform/evm-indexer/internal/codec"
	"github.com/csic-platform/evm-indexer/internal/ierrors"
)

const requestTimeout = 60 * time.Second

// peer wraps one validated RPC endpoint.
type peer struct {
	url    string
	client *gethrpc.Client
}

// Pool is the immutable, process-wide set of peers surviving construction
// validation for one chain. Per-call peer choice is a uniform random pick
// over the slice; the pick takes a short mutex around the shared random
// source, so it is not lock-free. The slice itself is never mutated after
// New returns.
type Pool struct {
	chain   chains.Chain
	peers   []*peer
	wsPeer  *peer
	randMu  sync.Mutex
	rand    *rand.Rand
}

// New dials every url concurrently, validates each against chain.ID via
// eth_chainId, and keeps only the peers that answered and matched. A
// surviving empty set is a ConfigError: there is nothing left to build a
// pool from. wsURL is optional; a websocket peer that fails to dial or
// mismatches the chain id is dropped with a log-worthy error rather than
// failing construction, since head-follow is an enhancement over the
// polling sync engine, not a hard requirement.
func New(ctx context.Context, chain chains.Chain, urls []string, wsURL string) (*Pool, error) {
	type result struct {
		p   *peer
		err error
	}

	results := make([]result, len(urls))
	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			p, err := dialAndValidate(ctx, url, chain.ID)
			results[i] = result{p: p, err: err}
		}(i, url)
	}
	wg.Wait()

	pool := &Pool{
		chain: chain,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, r := range results {
		if r.err == nil {
			pool.peers = append(pool.peers, r.p)
		}
	}

	if len(pool.peers) == 0 {
		return nil, &ierrors.ConfigError{Msg: "no RPC peer survived chain id validation"}
	}

	if wsURL != "" {
		wsPeer, err := dialAndValidate(ctx, wsURL, chain.ID)
		if err == nil {
			pool.wsPeer = wsPeer
		}
	}

	return pool, nil
}

func dialAndValidate(ctx context.Context, url string, expectedChainID int64) (*peer, error) {
	client, err := gethrpc.DialOptions(ctx, url, gethrpc.WithHTTPClient(&http.Client{Timeout: requestTimeout}))
	if err != nil {
		return nil, err
	}

	var hexID string
	callCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	if err := client.CallContext(callCtx, &hexID, "eth_chainId"); err != nil {
		client.Close()
		return nil, err
	}

	id, err := hexutil.DecodeUint64(hexID)
	if err != nil || int64(id) != expectedChainID {
		client.Close()
		return nil, &ierrors.ConfigError{Msg: "chain id mismatch"}
	}

	return &peer{url: url, client: client}, nil
}

// PeerCount returns the number of HTTP peers that survived validation.
func (p *Pool) PeerCount() int {
	return len(p.peers)
}

// randomPeer uniformly selects one surviving peer.
func (p *Pool) randomPeer() *peer {
	p.randMu.Lock()
	i := p.rand.Intn(len(p.peers))
	p.randMu.Unlock()
	return p.peers[i]
}

// GetLastBlock returns the chain's current head height via
// eth_blockNumber. No retry/failover happens here — the caller decides
// whether a TransientIO is worth retrying.
func (p *Pool) GetLastBlock(ctx context.Context) (int64, error) {
	var hexHeight string
	if err := p.randomPeer().client.CallContext(ctx, &hexHeight, "eth_blockNumber"); err != nil {
		return 0, &ierrors.TransientIO{Msg: "eth_blockNumber", Cause: err}
	}
	height, err := hexutil.DecodeUint64(hexHeight)
	if err != nil {
		return 0, &ierrors.TransientIO{Msg: "eth_blockNumber: malformed height", Cause: err}
	}
	return int64(height), nil
}

// GetBlock fetches one block, full-transaction form, via
// eth_getBlockByNumber(height, true).
func (p *Pool) GetBlock(ctx context.Context, height int64) (codec.RawBlock, error) {
	var raw codec.RawBlock
	err := p.randomPeer().client.CallContext(ctx, &raw, "eth_getBlockByNumber", hexutil.EncodeUint64(uint64(height)), true)
	if err != nil {
		return codec.RawBlock{}, &ierrors.TransientIO{Msg: "eth_getBlockByNumber", Cause: err}
	}
	return raw, nil
}

// GetTransactionReceipt fetches one receipt via eth_getTransactionReceipt.
// Used on chains that do not support the bulk eth_getBlockReceipts call.
func (p *Pool) GetTransactionReceipt(ctx context.Context, hash string) (codec.RawReceipt, error) {
	var raw codec.RawReceipt
	err := p.randomPeer().client.CallContext(ctx, &raw, "eth_getTransactionReceipt", hash)
	if err != nil {
		return codec.RawReceipt{}, &ierrors.TransientIO{Msg: "eth_getTransactionReceipt", Cause: err}
	}
	return raw, nil
}

// GetBlockReceipts fetches every receipt for a height in one call. Callers
// must check chains.Chain.SupportsBlocksReceipts before calling this —
// the pool does not gate it itself, since the sync engine already branches
// on that capability to decide the per-tx fallback path.
func (p *Pool) GetBlockReceipts(ctx context.Context, height int64) ([]codec.RawReceipt, error) {
	var raw []codec.RawReceipt
	err := p.randomPeer().client.CallContext(ctx, &raw, "eth_getBlockReceipts", hexutil.EncodeUint64(uint64(height)))
	if err != nil {
		return nil, &ierrors.TransientIO{Msg: "eth_getBlockReceipts", Cause: err}
	}
	return raw, nil
}

// CallContract issues eth_call against the latest block, returning the
// hex-encoded return data. Used by the extractor's token metadata worker to
// invoke name()/symbol()/decimals() without an ABI client.
func (p *Pool) CallContract(ctx context.Context, to, data string) (string, error) {
	var result string
	callArgs := map[string]string{"to": to, "data": data}
	err := p.randomPeer().client.CallContext(ctx, &result, "eth_call", callArgs, "latest")
	if err != nil {
		return "", &ierrors.TransientIO{Msg: "eth_call", Cause: err}
	}
	return result, nil
}

// HasWebsocketPeer reports whether a websocket peer survived construction.
func (p *Pool) HasWebsocketPeer() bool {
	return p.wsPeer != nil
}

// SubscribeNewHeads subscribes to the newHeads feed on the websocket peer.
// Callers must check HasWebsocketPeer first; calling this without one is a
// programming error, not a runtime condition, so it returns a ConfigError.
func (p *Pool) SubscribeNewHeads(ctx context.Context) (chan RawHead, *gethrpc.ClientSubscription, error) {
	if p.wsPeer == nil {
		return nil, nil, &ierrors.ConfigError{Msg: "no websocket peer configured"}
	}
	ch := make(chan RawHead, 16)
	sub, err := p.wsPeer.client.EthSubscribe(ctx, ch, "newHeads")
	if err != nil {
		return nil, nil, &ierrors.TransientIO{Msg: "newHeads subscribe", Cause: err}
	}
	return ch, sub, nil
}

// RawHead is the subset of a newHeads payload the head follower needs.
type RawHead struct {
	Hash   string `json:"hash"`
	Number string `json:"number"`
}

// Close releases every underlying RPC client connection.
func (p *Pool) Close() {
	for _, peer := range p.peers {
		peer.client.Close()
	}
	if p.wsPeer != nil {
		p.wsPeer.client.Close()
	}
}
