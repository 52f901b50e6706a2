package demo

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/stellar/anchor-demo/internal/network"
	"github.com/stellar/anchor-demo/internal/ui"
	"github.com/stellar/anchor-demo/internal/validators"
)

// Configs is everything a run needs, as collected from flags and environment variables.
type Configs struct {
	HomeDomain      string `validate:"required"`
	AssetCode       string `validate:"required,alphanum,max=12"`
	AssetIssuer     string `validate:"omitempty,stellar_public_key"`
	WalletSecretKey string `validate:"required,stellar_secret_key"`
	Amount          string `validate:"omitempty,numeric"`

	Pubnet      bool
	HorizonURL  string `validate:"omitempty,url"`
	AllowHTTP   bool
	AutoAdvance bool
	TraceBodies bool

	MinStepDuration time.Duration `validate:"gte=0"`
	PollInterval    time.Duration `validate:"gt=0"`
	PollTimeout     time.Duration `validate:"gtefield=PollInterval"`

	WithdrawType      string
	WithdrawDest      string
	WithdrawDestExtra string

	LogLevel           logrus.Level
	TrackerDSN         string
	StellarEnvironment string
	DatabaseURL        string
	MetricsPort        int `validate:"gte=0,lte=65535"`
}

var validate = validators.NewValidator()

func (c Configs) Network() network.Mode {
	return network.Mode{Pubnet: c.Pubnet, HorizonURL: c.HorizonURL}
}

// Validate returns the problems found in the configuration, keyed by flag name.
func (c Configs) Validate() (map[string]string, error) {
	err := validate.Struct(c)
	if err == nil {
		return nil, nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return validators.ParseValidationError(validationErrs), nil
}

// ConfigEntries renders the configuration panel. Secrets are masked.
func (c Configs) ConfigEntries(problems map[string]string) []ui.ConfigEntry {
	secret := ""
	if c.WalletSecretKey != "" {
		secret = c.WalletSecretKey[:min(4, len(c.WalletSecretKey))] + "****"
	}
	mode := c.Network()

	entries := []ui.ConfigEntry{
		{Name: "home-domain", Value: c.HomeDomain},
		{Name: "asset-code", Value: c.AssetCode},
		{Name: "asset-issuer", Value: c.AssetIssuer},
		{Name: "wallet-secret-key", Value: secret},
		{Name: "amount", Value: c.Amount},
		{Name: "pubnet", Value: mode.Name()},
		{Name: "horizon-url", Value: mode.Horizon()},
		{Name: "auto-advance", Value: strconv.FormatBool(c.AutoAdvance)},
		{Name: "min-step-duration", Value: c.MinStepDuration.String()},
		{Name: "poll-interval", Value: c.PollInterval.String()},
		{Name: "poll-timeout", Value: c.PollTimeout.String()},
		{Name: "withdraw-type", Value: c.WithdrawType},
		{Name: "database-url", Value: c.DatabaseURL},
		{Name: "metrics-port", Value: strconv.Itoa(c.MetricsPort)},
	}
	for i := range entries {
		entries[i].Problem = problems[entries[i].Name]
	}
	return entries
}
