package utils

import (
	"go/types"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/stellar/anchor-demo/internal/signing"
)

func DatabaseURLOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "database-url",
		Usage:       `Path of the sqlite database keeping the run history. Use ":memory:" for a throwaway one, or an empty value to disable history.`,
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "anchor-demo.db",
		Required:    false,
	}
}

func LogLevelOption(configKey *logrus.Level) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "log-level",
		Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
		OptType:        types.String,
		FlagDefault:    "INFO",
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionLogLevel,
		Required:       false,
	}
}

func HomeDomainOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "home-domain",
		Usage:       "The anchor's home domain, where its stellar.toml is served.",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "testanchor.stellar.org",
		Required:    false,
	}
}

func AssetCodeOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "asset-code",
		Usage:       "Code of the asset to withdraw or deposit.",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "SRT",
		Required:    false,
	}
}

func AssetIssuerOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "asset-issuer",
		Usage:          "Issuer of the asset. When empty, it is taken from the anchor's stellar.toml CURRENCIES.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionOptionalStellarPublicKey,
		ConfigKey:      configKey,
		Required:       false,
	}
}

func WalletSecretKeyOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "wallet-secret-key",
		Usage:          "Secret key of the wallet account. When empty and stdin is a terminal, it is prompted for.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionStellarPrivateKey,
		ConfigKey:      configKey,
		Required:       false,
	}
}

func WalletSignatureProviderOption(configKey *signing.SignatureClientType) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "wallet-signature-provider",
		Usage:          "Where the wallet key comes from. Options: ENV",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionSignatureClientProvider,
		ConfigKey:      configKey,
		FlagDefault:    string(signing.EnvSignatureClientType),
		Required:       true,
	}
}

func AmountOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "amount",
		Usage:     "Amount to withdraw or deposit. Interactive anchors may ask for it instead.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func PubnetOption(configKey *bool) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "pubnet",
		Usage:       "Run against the public network. Payments move real funds.",
		OptType:     types.Bool,
		ConfigKey:   configKey,
		FlagDefault: false,
		Required:    false,
	}
}

func HorizonURLOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "horizon-url",
		Usage:     "The URL of the Stellar Horizon server. Defaults to the SDF Horizon of the selected network.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func AllowHTTPOption(configKey *bool) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "allow-http",
		Usage:       "Talk to the anchor over plain HTTP. Only meant for local anchors.",
		OptType:     types.Bool,
		ConfigKey:   configKey,
		FlagDefault: false,
		Required:    false,
	}
}

func AutoAdvanceOption(configKey *bool) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "auto-advance",
		Usage:       "Run every step without waiting for the user, and accept the payment confirmation.",
		OptType:     types.Bool,
		ConfigKey:   configKey,
		FlagDefault: false,
		Required:    false,
	}
}

func TraceBodiesOption(configKey *bool) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "trace-bodies",
		Usage:       "Print the bodies of anchor requests and responses, not only their URLs.",
		OptType:     types.Bool,
		ConfigKey:   configKey,
		FlagDefault: false,
		Required:    false,
	}
}

func MinStepDurationOption(configKey *time.Duration) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "min-step-duration",
		Usage:          "Minimum time each step is displayed for.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionDuration,
		ConfigKey:      configKey,
		FlagDefault:    "1s",
		Required:       false,
	}
}

func PollIntervalOption(configKey *time.Duration) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "poll-interval",
		Usage:          "Interval between anchor transaction status polls.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionDuration,
		ConfigKey:      configKey,
		FlagDefault:    "2s",
		Required:       false,
	}
}

func PollTimeoutOption(configKey *time.Duration) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "poll-timeout",
		Usage:          "How long to wait for the anchor transaction to reach the expected status.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionDuration,
		ConfigKey:      configKey,
		FlagDefault:    "10m",
		Required:       false,
	}
}

// WithdrawDestinationOptions are the SEP-6 withdraw "type", "dest" and "dest_extra" parameters.
func WithdrawDestinationOptions(withdrawType, dest, destExtra *string) config.ConfigOptions {
	return config.ConfigOptions{
		{
			Name:        "withdraw-type",
			Usage:       "Type of the withdraw, as listed in the anchor's /info.",
			OptType:     types.String,
			ConfigKey:   withdrawType,
			FlagDefault: "bank_account",
			Required:    false,
		},
		{
			Name:      "withdraw-dest",
			Usage:     "Account the anchor should send the off-chain funds to.",
			OptType:   types.String,
			ConfigKey: dest,
			Required:  false,
		},
		{
			Name:      "withdraw-dest-extra",
			Usage:     "Extra information about the withdraw destination, such as a routing number.",
			OptType:   types.String,
			ConfigKey: destExtra,
			Required:  false,
		},
	}
}

func SentryDSNOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "tracker-dsn",
		Usage:     "The Sentry DSN. Errors are only logged when empty.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func StellarEnvironmentOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "stellar-environment",
		Usage:       "The Stellar Environment",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "development",
		Required:    false,
	}
}

func MetricsPortOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "metrics-port",
		Usage:       "Port serving /health and /metrics while a run is in progress. 0 disables it.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 0,
		Required:    false,
	}
}
