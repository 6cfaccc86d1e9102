package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nfc-go/desfire/pkg/desfire"
)

var diagAuthenticate bool

var diagCmd = &cobra.Command{
	Use:   "diag",
	Short: "Connect to a card and print version, applications and key settings",
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		card, reader, err := openCard(cfg)
		if err != nil {
			return err
		}
		defer card.Close()
		defer reader.Close()

		sel := &desfire.SelectApplicationCommand{}
		if err := card.Run(sel); err != nil {
			return fmt.Errorf("select PICC: %w", err)
		}

		ver := &desfire.GetVersionCommand{}
		if err := card.Run(ver); err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		fmt.Printf("Version response: % X\n", ver.Data())

		ids := &desfire.GetApplicationIDsCommand{}
		if err := card.Run(ids); err != nil {
			return fmt.Errorf("get application IDs: %w", err)
		}

		t := table.NewWriter()
		t.AppendHeader(table.Row{"AID"})
		for _, aid := range ids.AIDs() {
			t.AppendRow(table.Row{fmt.Sprintf("%02X%02X%02X", aid[0], aid[1], aid[2])})
		}
		fmt.Println(t.Render())

		if diagAuthenticate {
			if err := authenticate(card, cfg, [3]byte{}); err != nil {
				return err
			}
			keys := &desfire.GetKeySettingsCommand{}
			if err := card.Run(keys); err != nil {
				return fmt.Errorf("get key settings: %w", err)
			}
			fmt.Printf("KeySettings: 0x%02X  NumKeys: %d\n", keys.KeySettings, keys.NumKeys)
		}
		return nil
	},
}

func init() {
	diagCmd.Flags().BoolVar(&diagAuthenticate, "auth", false, "authenticate with the configured key before reporting key settings")
	rootCmd.AddCommand(diagCmd)
}
