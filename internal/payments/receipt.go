package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type ReceiptStatus string

const (
	ReceiptConfirmed ReceiptStatus = "confirmed"
	ReceiptFailed    ReceiptStatus = "failed"
	ReceiptPending   ReceiptStatus = "pending"
)

// ReceiptClient asks a chain's JSON-RPC endpoint for transaction receipts.
type ReceiptClient struct {
	HTTP *http.Client
	// Overrides keyed by chain id; the registry RPC URL is used otherwise.
	RPCURLs map[int64]string
}

func NewReceiptClient(overrides map[int64]string) *ReceiptClient {
	return &ReceiptClient{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		RPCURLs: overrides,
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcReceipt struct {
	Status      string `json:"status"`
	BlockNumber string `json:"blockNumber"`
}

type rpcResponse struct {
	Result *rpcReceipt `json:"result"`
	Error  *rpcError   `json:"error"`
}

func (c *ReceiptClient) endpoint(chainID int64) (string, error) {
	if url, ok := c.RPCURLs[chainID]; ok && url != "" {
		return url, nil
	}
	chain, err := LookupChain(chainID)
	if err != nil {
		return "", err
	}
	return chain.RPCURL, nil
}

// Status reports whether txHash succeeded, reverted, or is still unmined.
func (c *ReceiptClient) Status(ctx context.Context, chainID int64, txHash string) (ReceiptStatus, error) {
	if err := ValidateTxHash(txHash); err != nil {
		return "", err
	}
	url, err := c.endpoint(chainID)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_getTransactionReceipt",
		Params:  []interface{}{txHash},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("rpc request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("rpc request: unexpected status %d", resp.StatusCode)
	}

	var out rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("rpc decode: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil || out.Result.BlockNumber == "" {
		return ReceiptPending, nil
	}
	switch out.Result.Status {
	case "0x1":
		return ReceiptConfirmed, nil
	case "0x0":
		return ReceiptFailed, nil
	default:
		return ReceiptPending, nil
	}
}
