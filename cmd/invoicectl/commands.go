package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"invoicer/internal/delivery"
	"invoicer/internal/models"
	"invoicer/internal/money"
	"invoicer/internal/payments"
	"invoicer/internal/verification"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errMismatch = errors.New("verification hash does not match the document")

// documentFile is the YAML shape read by hash and verify.
type documentFile struct {
	Owner            string `yaml:"owner"`
	Client           string `yaml:"client"`
	Number           string `yaml:"number"`
	Total            string `yaml:"total"`
	Currency         string `yaml:"currency"`
	IssueDate        string `yaml:"issue_date"`
	VerificationHash string `yaml:"verification_hash,omitempty"`
}

func loadDocument(path string) (models.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}
	var file documentFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return models.Document{}, fmt.Errorf("parse %s: %w", path, err)
	}
	total, err := money.ParseAmount(file.Total)
	if err != nil {
		return models.Document{}, fmt.Errorf("total: %w", err)
	}
	issued, err := time.Parse(time.DateOnly, strings.TrimSpace(file.IssueDate))
	if err != nil {
		return models.Document{}, fmt.Errorf("issue_date: %w", err)
	}
	doc := models.Document{
		UserID:    file.Owner,
		ClientID:  file.Client,
		Number:    file.Number,
		Total:     total,
		Currency:  strings.ToUpper(strings.TrimSpace(file.Currency)),
		IssueDate: issued,
	}
	if file.VerificationHash != "" {
		hash := strings.TrimSpace(file.VerificationHash)
		doc.VerificationHash = &hash
	}
	return doc, nil
}

func hashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [document.yaml]",
		Short: "Print the verification hash of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			fields := verification.FieldsOf(doc)
			if show, _ := cmd.Flags().GetBool("canonical"); show {
				fmt.Fprintln(cmd.OutOrStdout(), verification.Canonical(fields))
			}
			fmt.Fprintln(cmd.OutOrStdout(), verification.Hash(fields))
			return nil
		},
	}
	cmd.Flags().Bool("canonical", false, "Also print the canonical string that is hashed")
	return cmd
}

func verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [document.yaml]",
		Short: "Compare a document with its recorded verification hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			result := verification.Check(doc)
			fmt.Fprintln(cmd.OutOrStdout(), result)
			if result == verification.ResultMismatch {
				return errMismatch
			}
			return nil
		},
	}
}

func calldataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calldata",
		Short: "Build the ERC-20 transfer a wallet would sign for a USD amount",
		RunE: func(cmd *cobra.Command, args []string) error {
			chainID, _ := cmd.Flags().GetInt64("chain")
			symbol, _ := cmd.Flags().GetString("token")
			recipient, _ := cmd.Flags().GetString("recipient")
			rawAmount, _ := cmd.Flags().GetString("amount")
			amount, err := money.ParseAmount(rawAmount)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			intent, err := payments.BuildIntent(
				models.Document{Currency: "USD", Total: amount},
				&models.WalletSettings{Address: recipient, ChainID: chainID, Token: strings.ToUpper(symbol)},
			)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(map[string]any{
				"chain_id":     intent.ChainIDHex,
				"token":        intent.Token.Symbol,
				"to":           intent.Transaction.To,
				"recipient":    intent.Recipient,
				"amount_units": intent.AmountUnits,
				"data":         intent.Transaction.Data,
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().Int64("chain", 1, "Chain id (1, 137 or 8453)")
	cmd.Flags().String("token", "USDC", "Stablecoin symbol")
	cmd.Flags().String("recipient", "", "Receiving wallet address")
	cmd.Flags().String("amount", "", "Amount in USD")
	_ = cmd.MarkFlagRequired("recipient")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func whatsappCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whatsapp [message]",
		Short: "Print a wa.me share link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phone, _ := cmd.Flags().GetString("phone")
			fmt.Fprintln(cmd.OutOrStdout(), delivery.WhatsAppLink(phone, args[0]))
			return nil
		},
	}
	cmd.Flags().String("phone", "", "Recipient phone number, any formatting")
	return cmd
}

// parseItem reads "description:quantity:unit_price".
func parseItem(raw string) (models.LineItem, error) {
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return models.LineItem{}, fmt.Errorf("item %q: want description:quantity:unit_price", raw)
	}
	quantity, err := money.ParseQuantity(parts[1])
	if err != nil {
		return models.LineItem{}, fmt.Errorf("item %q quantity: %w", raw, err)
	}
	price, err := money.ParseAmount(parts[2])
	if err != nil {
		return models.LineItem{}, fmt.Errorf("item %q unit price: %w", raw, err)
	}
	return models.LineItem{Description: strings.TrimSpace(parts[0]), Quantity: quantity, UnitPrice: price}, nil
}

func totalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Compute subtotal, VAT and total for a list of line items",
		RunE: func(cmd *cobra.Command, args []string) error {
			rawItems, _ := cmd.Flags().GetStringArray("item")
			rawVAT, _ := cmd.Flags().GetString("vat")
			currency, _ := cmd.Flags().GetString("currency")
			rate, err := money.ParseVATRate(rawVAT)
			if err != nil {
				return err
			}
			items := make(models.LineItems, 0, len(rawItems))
			for _, raw := range rawItems {
				item, err := parseItem(raw)
				if err != nil {
					return err
				}
				items = append(items, item)
			}
			totals := money.Compute(items, rate)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "subtotal: %s\n", money.FormatWithCurrency(totals.Subtotal, currency))
			fmt.Fprintf(out, "vat:      %s\n", money.FormatWithCurrency(totals.VAT, currency))
			fmt.Fprintf(out, "total:    %s\n", money.FormatWithCurrency(totals.Total, currency))
			return nil
		},
	}
	cmd.Flags().StringArray("item", nil, "Line item as description:quantity:unit_price (repeatable)")
	cmd.Flags().String("vat", "", "VAT rate in percent")
	cmd.Flags().String("currency", "USD", "Currency code")
	return cmd
}
