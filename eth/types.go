package eth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Block tags accepted wherever a block number is.
const (
	Earliest = "earliest"
	Latest   = "latest"
	Pending  = "pending"
)

// BlockNumber renders n as a hex quantity.
func BlockNumber(n uint64) string {
	return "0x" + strconv.FormatUint(n, 16)
}

// ParseQuantity decodes a hex quantity such as "0x1b4".
func ParseQuantity(s string) (uint64, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("quantity %q is missing 0x prefix", s)
	}
	return strconv.ParseUint(s[2:], 16, 64)
}

// Block is a block header with either transaction hashes or full
// transaction objects, depending on how it was requested.
type Block struct {
	Number           *string           `json:"number"`
	Hash             *string           `json:"hash"`
	ParentHash       string            `json:"parentHash"`
	Nonce            *string           `json:"nonce"`
	Sha3Uncles       string            `json:"sha3Uncles"`
	LogsBloom        *string           `json:"logsBloom"`
	TransactionsRoot string            `json:"transactionsRoot"`
	StateRoot        string            `json:"stateRoot"`
	ReceiptsRoot     string            `json:"receiptsRoot"`
	Miner            string            `json:"miner"`
	Difficulty       string            `json:"difficulty"`
	TotalDifficulty  *string           `json:"totalDifficulty"`
	ExtraData        string            `json:"extraData"`
	Size             string            `json:"size"`
	GasLimit         string            `json:"gasLimit"`
	GasUsed          string            `json:"gasUsed"`
	Timestamp        string            `json:"timestamp"`
	Transactions     []json.RawMessage `json:"transactions,omitempty"`
	Uncles           []string          `json:"uncles"`
}

// TransactionHashes returns the transactions of a block fetched without
// full transaction objects.
func (b *Block) TransactionHashes() ([]string, error) {
	out := make([]string, 0, len(b.Transactions))
	for _, raw := range b.Transactions {
		var hash string
		if err := json.Unmarshal(raw, &hash); err != nil {
			return nil, fmt.Errorf("block transactions are not hashes: %w", err)
		}
		out = append(out, hash)
	}
	return out, nil
}

// FullTransactions returns the transactions of a block fetched with full
// transaction objects.
func (b *Block) FullTransactions() ([]Transaction, error) {
	out := make([]Transaction, 0, len(b.Transactions))
	for _, raw := range b.Transactions {
		var tx Transaction
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("block transactions are not objects: %w", err)
		}
		out = append(out, tx)
	}
	return out, nil
}

// Transaction is a transaction as returned by the node.
type Transaction struct {
	BlockHash        *string `json:"blockHash"`
	BlockNumber      *string `json:"blockNumber"`
	From             string  `json:"from"`
	Gas              string  `json:"gas"`
	GasPrice         string  `json:"gasPrice"`
	Hash             string  `json:"hash"`
	Input            string  `json:"input"`
	Nonce            string  `json:"nonce"`
	To               *string `json:"to"`
	TransactionIndex *string `json:"transactionIndex"`
	Value            string  `json:"value"`
	V                string  `json:"v"`
	R                string  `json:"r"`
	S                string  `json:"s"`
}

// TransactionRequest is the call object of eth_call, eth_estimateGas and
// eth_sendTransaction.
type TransactionRequest struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Value    string `json:"value,omitempty"`
	Data     string `json:"data,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}

// Receipt is a transaction receipt.
type Receipt struct {
	BlockHash            string  `json:"blockHash"`
	BlockNumber          string  `json:"blockNumber"`
	ContractAddress      *string `json:"contractAddress"`
	CumulativeGasUsed    string  `json:"cumulativeGasUsed"`
	From                 string  `json:"from"`
	GasUsed              string  `json:"gasUsed"`
	Logs                 []Log   `json:"logs"`
	LogsBloom            string  `json:"logsBloom"`
	To                   *string `json:"to"`
	TransactionHash      string  `json:"transactionHash"`
	TransactionIndex     string  `json:"transactionIndex"`
	PostTransactionState string  `json:"postTransactionState,omitempty"`
	Status               string  `json:"status,omitempty"`
}

// Log is an event emitted by a contract.
type Log struct {
	Address          string   `json:"address"`
	BlockHash        *string  `json:"blockHash"`
	BlockNumber      *string  `json:"blockNumber"`
	Data             string   `json:"data"`
	LogIndex         *string  `json:"logIndex"`
	Removed          bool     `json:"removed"`
	Topics           []string `json:"topics"`
	TransactionHash  *string  `json:"transactionHash"`
	TransactionIndex *string  `json:"transactionIndex"`
}

// Filter selects logs for eth_newFilter and eth_getLogs. Address is either
// a single address string or a list of them.
type Filter struct {
	FromBlock string   `json:"fromBlock,omitempty"`
	ToBlock   string   `json:"toBlock,omitempty"`
	Address   any      `json:"address,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}

// Proof is the result of eth_getProof.
type Proof struct {
	Address      string         `json:"address"`
	AccountProof []string       `json:"accountProof"`
	Balance      string         `json:"balance"`
	CodeHash     string         `json:"codeHash"`
	Nonce        string         `json:"nonce"`
	StorageHash  string         `json:"storageHash"`
	StorageProof []StorageProof `json:"storageProof"`
}

// StorageProof proves one storage slot against the account storage hash.
type StorageProof struct {
	Key   string   `json:"key"`
	Value string   `json:"value"`
	Proof []string `json:"proof"`
}

// SyncProgress is reported while the node is syncing.
type SyncProgress struct {
	StartingBlock string `json:"startingBlock"`
	CurrentBlock  string `json:"currentBlock"`
	HighestBlock  string `json:"highestBlock"`
	KnownStates   string `json:"knownStates,omitempty"`
	PulledStates  string `json:"pulledStates,omitempty"`
}

// SyncStatus is the result of eth_syncing: false once the node is in sync,
// a progress object otherwise.
type SyncStatus struct {
	Syncing  bool
	Progress *SyncProgress
}

func (s *SyncStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("false")) || bytes.Equal(data, []byte("null")) {
		*s = SyncStatus{}
		return nil
	}
	if bytes.Equal(data, []byte("true")) {
		*s = SyncStatus{Syncing: true}
		return nil
	}
	var progress SyncProgress
	if err := json.Unmarshal(data, &progress); err != nil {
		return err
	}
	*s = SyncStatus{Syncing: true, Progress: &progress}
	return nil
}

func (s SyncStatus) MarshalJSON() ([]byte, error) {
	if s.Progress == nil {
		return json.Marshal(s.Syncing)
	}
	return json.Marshal(s.Progress)
}

// CompiledContract is the result of eth_compileSolidity.
type CompiledContract struct {
	Code string         `json:"code"`
	Info map[string]any `json:"info"`
}
