package payments

import (
	"fmt"
	"sort"
	"strings"
)

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// AddChainParams mirrors the wallet_addEthereumChain request object.
type AddChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int32  `json:"decimals"`
}

type Chain struct {
	ID       int64
	Name     string
	Native   NativeCurrency
	RPCURL   string
	Explorer string
	Tokens   map[string]Token
}

func (c Chain) HexID() string {
	return fmt.Sprintf("0x%x", c.ID)
}

func (c Chain) AddParams() AddChainParams {
	return AddChainParams{
		ChainID:           c.HexID(),
		ChainName:         c.Name,
		NativeCurrency:    c.Native,
		RPCURLs:           []string{c.RPCURL},
		BlockExplorerURLs: []string{c.Explorer},
	}
}

func (c Chain) TxURL(txHash string) string {
	return strings.TrimRight(c.Explorer, "/") + "/tx/" + txHash
}

var ether = NativeCurrency{Name: "Ether", Symbol: "ETH", Decimals: 18}

var chains = map[int64]Chain{
	1: {
		ID:       1,
		Name:     "Ethereum Mainnet",
		Native:   ether,
		RPCURL:   "https://cloudflare-eth.com",
		Explorer: "https://etherscan.io",
		Tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
			"USDT": {Symbol: "USDT", Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
		},
	},
	137: {
		ID:       137,
		Name:     "Polygon Mainnet",
		Native:   NativeCurrency{Name: "POL", Symbol: "POL", Decimals: 18},
		RPCURL:   "https://polygon-rpc.com",
		Explorer: "https://polygonscan.com",
		Tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359", Decimals: 6},
			"USDT": {Symbol: "USDT", Address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", Decimals: 6},
		},
	},
	8453: {
		ID:       8453,
		Name:     "Base",
		Native:   ether,
		RPCURL:   "https://mainnet.base.org",
		Explorer: "https://basescan.org",
		Tokens: map[string]Token{
			"USDC": {Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
		},
	},
}

func LookupChain(chainID int64) (Chain, error) {
	chain, ok := chains[chainID]
	if !ok {
		return Chain{}, ErrUnsupportedChain
	}
	return chain, nil
}

func LookupToken(chainID int64, symbol string) (Chain, Token, error) {
	chain, err := LookupChain(chainID)
	if err != nil {
		return Chain{}, Token{}, err
	}
	token, ok := chain.Tokens[strings.ToUpper(strings.TrimSpace(symbol))]
	if !ok {
		return Chain{}, Token{}, ErrUnsupportedToken
	}
	return chain, token, nil
}

// SupportedChainIDs is sorted ascending.
func SupportedChainIDs() []int64 {
	ids := make([]int64, 0, len(chains))
	for id := range chains {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
