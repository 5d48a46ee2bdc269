package cmd

import (
	"net/http"

	"github.com/ardanlabs/ledger/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <address>...",
	Short: "Register peer addresses with the node.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		// Catch a bad address before bothering the node.
		for _, address := range args {
			if _, err := peer.Parse(address); err != nil {
				return err
			}
		}

		nodes := struct {
			Nodes []string `json:"nodes"`
		}{
			Nodes: args,
		}

		return call(cmd.OutOrStdout(), http.MethodPost, "/nodes/register", nodes)
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
