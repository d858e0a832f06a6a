// Package eth binds the bundled Ethereum catalog to typed Go methods. Every
// method is validated against its catalog schemas by the underlying
// rpcclient before anything is sent.
package eth

import (
	"context"

	rpcclient "github.com/goliatone/go-rpcclient"
	"github.com/goliatone/go-rpcclient/catalog"
	"github.com/goliatone/go-rpcclient/transport"
)

// Client exposes one method per eth_* procedure of the bundled catalog.
type Client struct {
	rpc    rpcclient.Requester
	closer interface{ Close() error }
}

// New wraps r. r is expected to validate against catalog.Ethereum().
func New(r rpcclient.Requester) *Client {
	c := &Client{rpc: r}
	if closer, ok := r.(interface{ Close() error }); ok {
		c.closer = closer
	}
	return c
}

// Dial builds an rpcclient over the Ethereum catalog and cfg.
func Dial(cfg transport.Config, opts ...rpcclient.Option) (*Client, error) {
	rpc, err := rpcclient.New(catalog.Ethereum(), cfg, opts...)
	if err != nil {
		return nil, err
	}
	return New(rpc), nil
}

// Close releases the underlying client when it owns one.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *Client) GetBlockByHash(ctx context.Context, blockHash string, includeTransactions bool) (*Block, error) {
	return rpcclient.Call[*Block](ctx, c.rpc, "eth_getBlockByHash", blockHash, includeTransactions)
}

func (c *Client) GetBlockByNumber(ctx context.Context, blockNumber string, includeTransactions bool) (*Block, error) {
	return rpcclient.Call[*Block](ctx, c.rpc, "eth_getBlockByNumber", blockNumber, includeTransactions)
}

// BlockNumber returns the number of the most recent block as a hex quantity.
func (c *Client) BlockNumber(ctx context.Context) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_blockNumber")
}

func (c *Client) GetStorageAt(ctx context.Context, address, key, blockNumber string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_getStorageAt", address, key, blockNumber)
}

func (c *Client) GetTransactionCount(ctx context.Context, address, blockNumber string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_getTransactionCount", address, blockNumber)
}

func (c *Client) GetTransactionByHash(ctx context.Context, transactionHash string) (*Transaction, error) {
	return rpcclient.Call[*Transaction](ctx, c.rpc, "eth_getTransactionByHash", transactionHash)
}

func (c *Client) GetTransactionByBlockHashAndIndex(ctx context.Context, blockHash, index string) (*Transaction, error) {
	return rpcclient.Call[*Transaction](ctx, c.rpc, "eth_getTransactionByBlockHashAndIndex", blockHash, index)
}

func (c *Client) GetTransactionByBlockNumberAndIndex(ctx context.Context, blockNumber, index string) (*Transaction, error) {
	return rpcclient.Call[*Transaction](ctx, c.rpc, "eth_getTransactionByBlockNumberAndIndex", blockNumber, index)
}

// GetTransactionReceipt returns nil for pending transactions.
func (c *Client) GetTransactionReceipt(ctx context.Context, transactionHash string) (*Receipt, error) {
	return rpcclient.Call[*Receipt](ctx, c.rpc, "eth_getTransactionReceipt", transactionHash)
}

func (c *Client) GetUncleByBlockHashAndIndex(ctx context.Context, blockHash, index string) (*Block, error) {
	return rpcclient.Call[*Block](ctx, c.rpc, "eth_getUncleByBlockHashAndIndex", blockHash, index)
}

func (c *Client) GetUncleByBlockNumberAndIndex(ctx context.Context, blockNumber, index string) (*Block, error) {
	return rpcclient.Call[*Block](ctx, c.rpc, "eth_getUncleByBlockNumberAndIndex", blockNumber, index)
}

func (c *Client) NewFilter(ctx context.Context, filter Filter) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_newFilter", filter)
}

func (c *Client) NewBlockFilter(ctx context.Context) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_newBlockFilter")
}

func (c *Client) NewPendingTransactionFilter(ctx context.Context) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_newPendingTransactionFilter")
}

func (c *Client) UninstallFilter(ctx context.Context, filterID string) (bool, error) {
	return rpcclient.Call[bool](ctx, c.rpc, "eth_uninstallFilter", filterID)
}

func (c *Client) GetFilterChanges(ctx context.Context, filterID string) ([]Log, error) {
	return rpcclient.Call[[]Log](ctx, c.rpc, "eth_getFilterChanges", filterID)
}

func (c *Client) GetFilterLogs(ctx context.Context, filterID string) ([]Log, error) {
	return rpcclient.Call[[]Log](ctx, c.rpc, "eth_getFilterLogs", filterID)
}

func (c *Client) GetLogs(ctx context.Context, filter Filter) ([]Log, error) {
	return rpcclient.Call[[]Log](ctx, c.rpc, "eth_getLogs", filter)
}

// GetWork returns the current block header pow-hash, the seed hash and the
// boundary condition.
func (c *Client) GetWork(ctx context.Context) ([]string, error) {
	return rpcclient.Call[[]string](ctx, c.rpc, "eth_getWork")
}

func (c *Client) SubmitWork(ctx context.Context, nonce, powHash, mixHash string) (bool, error) {
	return rpcclient.Call[bool](ctx, c.rpc, "eth_submitWork", nonce, powHash, mixHash)
}

func (c *Client) SubmitHashrate(ctx context.Context, hashRate, id string) (bool, error) {
	return rpcclient.Call[bool](ctx, c.rpc, "eth_submitHashrate", hashRate, id)
}

func (c *Client) GetProof(ctx context.Context, address string, storageKeys []string, blockNumber string) (*Proof, error) {
	if storageKeys == nil {
		storageKeys = []string{}
	}
	return rpcclient.Call[*Proof](ctx, c.rpc, "eth_getProof", address, storageKeys, blockNumber)
}

func (c *Client) GetCode(ctx context.Context, address, blockNumber string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_getCode", address, blockNumber)
}

// GetBalance returns the balance in wei as a hex quantity.
func (c *Client) GetBalance(ctx context.Context, address, blockNumber string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_getBalance", address, blockNumber)
}

func (c *Client) Sign(ctx context.Context, address, message string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_sign", address, message)
}

func (c *Client) Accounts(ctx context.Context) ([]string, error) {
	return rpcclient.Call[[]string](ctx, c.rpc, "eth_account")
}

func (c *Client) GasPrice(ctx context.Context) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_gasPrice")
}

func (c *Client) Hashrate(ctx context.Context) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_hashrate")
}

func (c *Client) Mining(ctx context.Context) (bool, error) {
	return rpcclient.Call[bool](ctx, c.rpc, "eth_mining")
}

func (c *Client) Coinbase(ctx context.Context) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_coinbase")
}

func (c *Client) ProtocolVersion(ctx context.Context) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_protocolVersion")
}

func (c *Client) BlockTransactionCountByHash(ctx context.Context, blockHash string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_blockTransactionCountByHash", blockHash)
}

func (c *Client) BlockTransactionCountByNumber(ctx context.Context, blockNumber string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_blockTransactionCountByNumber", blockNumber)
}

func (c *Client) GetUncleCountByBlockHash(ctx context.Context, blockHash string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_getUncleCountByBlockHash", blockHash)
}

func (c *Client) GetUncleCountByBlockNumber(ctx context.Context, blockNumber string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_getUncleCountByBlockNumber", blockNumber)
}

// SendTransaction returns the transaction hash.
func (c *Client) SendTransaction(ctx context.Context, tx TransactionRequest) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_sendTransaction", tx)
}

func (c *Client) SendRawTransaction(ctx context.Context, signed string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_sendRawTransaction", signed)
}

func (c *Client) Call(ctx context.Context, tx TransactionRequest) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_call", tx)
}

func (c *Client) EstimateGas(ctx context.Context, tx TransactionRequest) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_estimateGas", tx)
}

func (c *Client) Syncing(ctx context.Context) (SyncStatus, error) {
	return rpcclient.Call[SyncStatus](ctx, c.rpc, "eth_syncing")
}

func (c *Client) GetCompilers(ctx context.Context) ([]string, error) {
	return rpcclient.Call[[]string](ctx, c.rpc, "eth_getCompilers")
}

func (c *Client) CompileSolidity(ctx context.Context, code string) (*CompiledContract, error) {
	return rpcclient.Call[*CompiledContract](ctx, c.rpc, "eth_compileSolidity", code)
}

func (c *Client) CompileLLL(ctx context.Context, code string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_compileLLL", code)
}

func (c *Client) CompileSerpent(ctx context.Context, code string) (string, error) {
	return rpcclient.Call[string](ctx, c.rpc, "eth_compileSerpent", code)
}
