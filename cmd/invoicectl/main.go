// Command invoicectl recomputes verification hashes and payment payloads
// offline, from a YAML description of a document.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "invoicectl",
		Short:         "Offline tools for invoices and quotes",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(hashCmd())
	root.AddCommand(verifyCmd())
	root.AddCommand(calldataCmd())
	root.AddCommand(whatsappCmd())
	root.AddCommand(totalsCmd())
	return root
}
