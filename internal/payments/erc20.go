package payments

import (
	"encoding/hex"
	"errors"
	"math/big"
	"regexp"
	"strings"

	"invoicer/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/sha3"
)

var (
	ErrUnsupportedChain    = errors.New("unsupported chain")
	ErrUnsupportedToken    = errors.New("unsupported token")
	ErrUnsupportedCurrency = errors.New("crypto payments require a USD document")
	ErrInvalidAddress      = errors.New("invalid wallet address")
	ErrInvalidTxHash       = errors.New("invalid transaction hash")
	ErrInvalidAmount       = errors.New("amount must be positive and fit in uint256")
	ErrWalletNotConfigured = errors.New("no wallet configured for this document")
	ErrWalletCancelled     = errors.New("payment cancelled in wallet")
	ErrWalletFailed        = errors.New("wallet transaction failed")
)

// EIP-1193 error code for a request the user rejected.
const userRejectedCode = 4001

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

var transferSelector = selector("transfer(address,uint256)")

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

func selector(signature string) []byte {
	return keccak256([]byte(signature))[:4]
}

// ValidateAddress accepts all-lower or all-upper hex, and mixed case only when
// it carries a valid EIP-55 checksum.
func ValidateAddress(address string) error {
	if !addressPattern.MatchString(address) {
		return ErrInvalidAddress
	}
	body := address[2:]
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	if ChecksumAddress(address) != address {
		return ErrInvalidAddress
	}
	return nil
}

// ChecksumAddress returns the EIP-55 form of a hex address.
func ChecksumAddress(address string) string {
	lower := strings.ToLower(strings.TrimPrefix(address, "0x"))
	hash := hex.EncodeToString(keccak256([]byte(lower)))
	out := []byte(lower)
	for i, c := range out {
		if c >= 'a' && c <= 'f' && hash[i] >= '8' {
			out[i] = c - 32
		}
	}
	return "0x" + string(out)
}

func ValidateTxHash(txHash string) error {
	if !txHashPattern.MatchString(txHash) {
		return ErrInvalidTxHash
	}
	return nil
}

// ToTokenUnits scales a decimal amount to the token's smallest unit.
func ToTokenUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	scaled := amount.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, ErrInvalidAmount
	}
	units := scaled.BigInt()
	if units.BitLen() > 256 {
		return nil, ErrInvalidAmount
	}
	return units, nil
}

// TransferCalldata ABI-encodes transfer(recipient, amount).
func TransferCalldata(recipient string, amount *big.Int) (string, error) {
	if err := ValidateAddress(recipient); err != nil {
		return "", err
	}
	if amount == nil || amount.Sign() <= 0 || amount.BitLen() > 256 {
		return "", ErrInvalidAmount
	}
	addr, err := hex.DecodeString(strings.ToLower(recipient[2:]))
	if err != nil {
		return "", ErrInvalidAddress
	}
	data := make([]byte, 0, 4+32+32)
	data = append(data, transferSelector...)
	data = append(data, leftPad32(addr)...)
	data = append(data, leftPad32(amount.Bytes())...)
	return "0x" + hex.EncodeToString(data), nil
}

func leftPad32(b []byte) []byte {
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

type TransactionRequest struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// Intent is everything the browser needs to switch chain and send the transfer.
type Intent struct {
	DocumentID     string             `json:"document_id"`
	ChainID        int64              `json:"chain_id"`
	ChainIDHex     string             `json:"chain_id_hex"`
	AddChainParams AddChainParams     `json:"switch_params"`
	Token          Token              `json:"token"`
	Recipient      string             `json:"recipient"`
	Amount         string             `json:"amount"`
	AmountUnits    string             `json:"amount_units"`
	Transaction    TransactionRequest `json:"transaction"`
}

func BuildIntent(doc models.Document, wallet *models.WalletSettings) (Intent, error) {
	if wallet == nil || wallet.Address == "" {
		return Intent{}, ErrWalletNotConfigured
	}
	if !strings.EqualFold(doc.Currency, "USD") {
		return Intent{}, ErrUnsupportedCurrency
	}
	chain, token, err := LookupToken(wallet.ChainID, wallet.Token)
	if err != nil {
		return Intent{}, err
	}
	units, err := ToTokenUnits(doc.Total, token.Decimals)
	if err != nil {
		return Intent{}, err
	}
	data, err := TransferCalldata(wallet.Address, units)
	if err != nil {
		return Intent{}, err
	}
	return Intent{
		DocumentID:     doc.ID,
		ChainID:        chain.ID,
		ChainIDHex:     chain.HexID(),
		AddChainParams: chain.AddParams(),
		Token:          token,
		Recipient:      wallet.Address,
		Amount:         doc.Total.StringFixed(2),
		AmountUnits:    units.String(),
		Transaction: TransactionRequest{
			To:    token.Address,
			Data:  data,
			Value: "0x0",
		},
	}, nil
}

// ClassifyWalletError maps an EIP-1193 provider error code to a wallet error.
func ClassifyWalletError(code int) error {
	if code == userRejectedCode {
		return ErrWalletCancelled
	}
	return ErrWalletFailed
}
