package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfc-go/desfire/pkg/desfire"
)

var (
	readAID      string
	readFileNo   int
	readOffset   int
	readLength   int
	readCommMode string
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Authenticate and read a slice of a standard data file",
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

		aid, err := parseAID(readAID)
		if err != nil {
			return err
		}
		if err := authenticate(card, cfg, aid); err != nil {
			return err
		}

		mode, err := parseCommMode(readCommMode)
		if err != nil {
			return err
		}

		rd := &desfire.ReadDataCommand{
			FileNo:   byte(readFileNo),
			Offset:   readOffset,
			Length:   readLength,
			FileMode: mode,
		}
		if err := card.Run(rd); err != nil {
			return fmt.Errorf("read data: %w", err)
		}
		fmt.Println(hex.EncodeToString(rd.Data()))
		return nil
	},
}

func init() {
	readCmd.Flags().StringVar(&readAID, "aid", "000000", "application ID (6 hex digits)")
	readCmd.Flags().IntVar(&readFileNo, "file", 0, "file number")
	readCmd.Flags().IntVar(&readOffset, "offset", 0, "byte offset")
	readCmd.Flags().IntVar(&readLength, "length", 0, "bytes to read (required for enc-mode files)")
	readCmd.Flags().StringVar(&readCommMode, "mode", "plain", "file comm mode: plain, mac or enc")
	rootCmd.AddCommand(readCmd)
}

func parseAID(s string) ([3]byte, error) {
	var aid [3]byte
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 3 {
		return aid, fmt.Errorf("aid must be 6 hex digits")
	}
	copy(aid[:], b)
	return aid, nil
}

func parseCommMode(s string) (desfire.CommMode, error) {
	switch s {
	case "plain":
		return desfire.ModePlain, nil
	case "mac":
		return desfire.ModeMAC, nil
	case "enc":
		return desfire.ModeEnc, nil
	default:
		return 0, fmt.Errorf("mode must be plain, mac or enc, got %q", s)
	}
}
