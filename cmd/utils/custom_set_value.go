package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/stellar/anchor-demo/internal/signing"
)

func SetConfigOptionStellarPublicKey(co *config.ConfigOption) error {
	publicKey := viper.GetString(co.Name)

	kp, err := keypair.ParseAddress(publicKey)
	if err != nil {
		return fmt.Errorf("error validating public key in %s: %w", co.Name, err)
	}

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a string, but a %T was provided instead", co.Name, co.ConfigKey)
	}
	*key = kp.Address()

	return nil
}

// SetConfigOptionOptionalStellarPublicKey accepts an empty value, and validates the public key otherwise.
func SetConfigOptionOptionalStellarPublicKey(co *config.ConfigOption) error {
	if strings.TrimSpace(viper.GetString(co.Name)) == "" {
		return nil
	}
	return SetConfigOptionStellarPublicKey(co)
}

// SetConfigOptionStellarPrivateKey accepts an empty value so the key can be prompted for later.
func SetConfigOptionStellarPrivateKey(co *config.ConfigOption) error {
	privateKey := strings.TrimSpace(viper.GetString(co.Name))

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a string, but a %T was provided instead", co.Name, co.ConfigKey)
	}
	if privateKey == "" {
		*key = ""
		return nil
	}

	kp, err := keypair.ParseFull(privateKey)
	if err != nil {
		return fmt.Errorf("invalid private key provided in %s: %w", co.Name, err)
	}
	*key = kp.Seed()

	return nil
}

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level in %s: %w", co.Name, err)
	}

	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("%s configKey has an invalid type %T", co.Name, co.ConfigKey)
	}
	*key = logLevel

	return nil
}

// SetConfigOptionDuration parses values such as "1s" or "500ms".
func SetConfigOptionDuration(co *config.ConfigOption) error {
	durationStr := viper.GetString(co.Name)
	duration, err := time.ParseDuration(durationStr)
	if err != nil {
		return fmt.Errorf("couldn't parse duration in %s: %w", co.Name, err)
	}
	if duration < 0 {
		return fmt.Errorf("%s cannot be negative: %s", co.Name, durationStr)
	}

	key, ok := co.ConfigKey.(*time.Duration)
	if !ok {
		return fmt.Errorf("%s configKey has an invalid type %T", co.Name, co.ConfigKey)
	}
	*key = duration

	return nil
}

func SetConfigOptionSignatureClientProvider(co *config.ConfigOption) error {
	scType := viper.GetString(co.Name)

	key, ok := co.ConfigKey.(*signing.SignatureClientType)
	if !ok {
		return fmt.Errorf("%s configKey has an invalid type %T", co.Name, co.ConfigKey)
	}

	t := signing.SignatureClientType(strings.ToUpper(scType))
	if !t.IsValid() {
		return fmt.Errorf("invalid %s value provided. Expected: ENV", co.Name)
	}
	*key = t

	return nil
}
