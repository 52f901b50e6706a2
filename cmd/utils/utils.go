package utils

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/stellar/anchor-demo/internal/signing"
)

func DefaultPersistentPreRunE(cfgOpts config.ConfigOptions) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		// subcommands share flag names, so viper must read the ones of the command being run
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("binding flags of %s: %w", cmd.Name(), err)
		}
		if err := cfgOpts.RequireE(); err != nil {
			return fmt.Errorf("requiring values of config options: %w", err)
		}
		if err := cfgOpts.SetValues(); err != nil {
			return fmt.Errorf("setting values of config options: %w", err)
		}
		return nil
	}
}

type SignatureClientOptions struct {
	Type              signing.SignatureClientType
	NetworkPassphrase string

	// Env Options
	WalletSecretKey string
}

//nolint:wrapcheck // defer is used to wrap the error
func SignatureClientResolver(signatureClientOpts *SignatureClientOptions) (sigClient signing.SignatureClient, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("resolving signature client: %w", err)
		}
	}()

	switch signatureClientOpts.Type {
	case signing.EnvSignatureClientType:
		return signing.NewEnvSignatureClient(signatureClientOpts.WalletSecretKey, signatureClientOpts.NetworkPassphrase)
	}

	return nil, signing.ErrInvalidSignatureClientType
}

// ResolveSecret returns secret when set, and asks the prompter for it otherwise. A nil prompter leaves it empty.
func ResolveSecret(secret string, prompter PasswordPrompter) (string, error) {
	if secret != "" || prompter == nil {
		return secret, nil
	}
	secret, err := prompter.Run()
	if err != nil {
		return "", fmt.Errorf("prompting for secret: %w", err)
	}
	return secret, nil
}
