// Package cmd provides the desfire-cli command tree.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfc-go/desfire/internal/config"
	"github.com/nfc-go/desfire/internal/keyfile"
	"github.com/nfc-go/desfire/internal/pcsc"
	"github.com/nfc-go/desfire/pkg/desfire"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "desfire-cli",
	Short:         "Diagnostic and provisioning tool for MIFARE DESFire cards",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the command tree; main's only job is to report its error.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to desfire-cli config file")
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func wireKindFor(cfg *config.Config) desfire.WireKind {
	if cfg.Reader.Wire == "native" {
		return desfire.WireNative
	}
	return desfire.WireISO
}

func authSchemeFor(cfg *config.Config) desfire.AuthScheme {
	switch cfg.Keys.Scheme {
	case "legacy_des":
		return desfire.SchemeLegacyDES
	case "iso_3des":
		return desfire.SchemeIso3DES
	default:
		return desfire.SchemeAES
	}
}

func cmdCounterModeFor(cfg *config.Config) desfire.CmdCounterMode {
	if cfg.Runtime.CmdCounterMode == "per_exchange" {
		return desfire.CmdCounterPerExchange
	}
	return desfire.CmdCounterConstantZero
}

// openCard connects to the configured reader and opens a desfire
// session over it, ready for SelectApplication/Authenticate.
func openCard(cfg *config.Config) (*desfire.Card, *pcsc.Reader, error) {
	maxAPDU := 60
	if cfg.Reader.MaxAPDUSize != nil {
		maxAPDU = *cfg.Reader.MaxAPDUSize
	}

	reader, err := pcsc.Open(*cfg.Reader.Index, 10*time.Second)
	if err != nil {
		return nil, nil, err
	}

	deadline := desfire.DefaultDeadline
	if cfg.Runtime.DeadlineMS != nil {
		deadline = time.Duration(*cfg.Runtime.DeadlineMS) * time.Millisecond
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	card, err := desfire.OpenSession(reader, wireKindFor(cfg), desfire.ReaderCapabilities{
		MaxAPDUSize:        maxAPDU,
		SupportsISO14443_4: true,
	},
		desfire.WithLogger(logger),
		desfire.WithDeadline(deadline),
		desfire.WithCmdCounterMode(cmdCounterModeFor(cfg)),
	)
	if err != nil {
		reader.Close()
		return nil, nil, err
	}
	return card, reader, nil
}

// loadAuthKey reads the configured auth key slot's hex file from the
// keys directory, named "<slot>.hex".
func loadAuthKey(cfg *config.Config) ([]byte, error) {
	path := fmt.Sprintf("%s/%d.hex", cfg.Keys.Dir, *cfg.Keys.AuthKeyNo)
	return keyfile.Load(path)
}

// authenticate selects the application named by aid (the all-zero AID
// selects the PICC level) and runs Authenticate with the configured key.
func authenticate(card *desfire.Card, cfg *config.Config, aid [3]byte) error {
	sel := &desfire.SelectApplicationCommand{AID: aid}
	if err := card.Run(sel); err != nil {
		return fmt.Errorf("select application: %w", err)
	}

	key, err := loadAuthKey(cfg)
	if err != nil {
		return fmt.Errorf("load auth key: %w", err)
	}

	auth := &desfire.AuthenticateCommand{
		Scheme: authSchemeFor(cfg),
		KeyNo:  byte(*cfg.Keys.AuthKeyNo),
		Key:    key,
	}
	if err := card.Run(auth); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	return nil
}
