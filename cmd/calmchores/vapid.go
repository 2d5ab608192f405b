package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/calmchores/internal/push"
)

var vapidKeysCmd = &cobra.Command{
	Use:   "vapid-keys",
	Short: "Generate a VAPID key pair for push notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "CALMCHORES_VAPID_PUBLIC_KEY=%s\nCALMCHORES_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return nil
	},
}
