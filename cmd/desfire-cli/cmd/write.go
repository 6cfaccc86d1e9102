package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfc-go/desfire/pkg/desfire"
)

var (
	writeAID      string
	writeFileNo   int
	writeOffset   int
	writeCommMode string
	writeDataHex  string
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Authenticate and write bytes to a standard data file",
	RunE: func(c *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := hex.DecodeString(writeDataHex)
		if err != nil {
			return fmt.Errorf("--data must be hex: %w", err)
		}

		card, reader, err := openCard(cfg)
		if err != nil {
			return err
		}
		defer card.Close()
		defer reader.Close()

		aid, err := parseAID(writeAID)
		if err != nil {
			return err
		}
		if err := authenticate(card, cfg, aid); err != nil {
			return err
		}

		mode, err := parseCommMode(writeCommMode)
		if err != nil {
			return err
		}

		wr := &desfire.WriteDataCommand{
			FileNo:    byte(writeFileNo),
			Offset:    writeOffset,
			Data:      data,
			FileMode:  mode,
			ChunkSize: desfire.MaxDataFrameSize(card.Capabilities()),
		}
		if err := card.Run(wr); err != nil {
			return fmt.Errorf("write data: %w", err)
		}

		commit := desfire.NewCommitTransactionCommand()
		if err := card.Run(commit); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		fmt.Println("write committed")
		return nil
	},
}

func init() {
	writeCmd.Flags().StringVar(&writeAID, "aid", "000000", "application ID (6 hex digits)")
	writeCmd.Flags().IntVar(&writeFileNo, "file", 0, "file number")
	writeCmd.Flags().IntVar(&writeOffset, "offset", 0, "byte offset")
	writeCmd.Flags().StringVar(&writeCommMode, "mode", "plain", "file comm mode: plain, mac or enc")
	writeCmd.Flags().StringVar(&writeDataHex, "data", "", "hex-encoded bytes to write")
	rootCmd.AddCommand(writeCmd)
}
