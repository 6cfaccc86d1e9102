package cmd

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nfc-go/desfire/pkg/desfire"
)

var (
	changeKeyAID        string
	changeKeySlot       int
	changeKeyOldHex     string
	changeKeyVersion    int
)

var changeKeyCmd = &cobra.Command{
	Use:   "change-key",
	Short: "Authenticate and install a new key into a key slot",
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

		aid, err := parseAID(changeKeyAID)
		if err != nil {
			return err
		}
		if err := authenticate(card, cfg, aid); err != nil {
			return err
		}

		newKey, err := readKeyHidden("New key (hex): ")
		if err != nil {
			return err
		}

		var oldKey []byte
		if changeKeyOldHex != "" {
			oldKey, err = hex.DecodeString(changeKeyOldHex)
			if err != nil {
				return fmt.Errorf("--old-key must be hex: %w", err)
			}
		}

		keyType := desfire.KeyTypeAES
		switch cfg.Keys.Scheme {
		case "legacy_des":
			keyType = desfire.KeyTypeDES
		case "iso_3des":
			keyType = desfire.KeyType3K3DES
		}

		ck := &desfire.ChangeKeyCommand{
			KeyNo:         byte(changeKeySlot),
			NewKeyType:    keyType,
			NewKey:        newKey,
			NewKeyVersion: byte(changeKeyVersion),
			OldKey:        oldKey,
		}
		if err := card.Run(ck); err != nil {
			return fmt.Errorf("change key: %w", err)
		}
		fmt.Println("key changed")
		return nil
	},
}

func init() {
	changeKeyCmd.Flags().StringVar(&changeKeyAID, "aid", "000000", "application ID (6 hex digits)")
	changeKeyCmd.Flags().IntVar(&changeKeySlot, "slot", 0, "key slot to change")
	changeKeyCmd.Flags().StringVar(&changeKeyOldHex, "old-key", "", "hex-encoded current key for a cross-slot change; omit for a same-slot change")
	changeKeyCmd.Flags().IntVar(&changeKeyVersion, "version", 0, "new key version byte (AES only)")
	rootCmd.AddCommand(changeKeyCmd)
}

// readKeyHidden prompts on stderr and reads one hex-encoded line from
// the terminal without echoing it, falling back to a plain scanned
// line when stdin isn't a terminal (e.g. piped input in scripts).
func readKeyHidden(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	var line string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read key: %w", err)
		}
		line = string(b)
	} else {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			return nil, fmt.Errorf("read key: %w", scanner.Err())
		}
		line = scanner.Text()
	}
	key, err := hex.DecodeString(line)
	if err != nil {
		return nil, fmt.Errorf("key must be hex: %w", err)
	}
	return key, nil
}
