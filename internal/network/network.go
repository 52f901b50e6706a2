// Package network resolves which Stellar network a run talks to.
package network

import (
	"github.com/stellar/go-stellar-sdk/clients/horizonclient"
	stellarnetwork "github.com/stellar/go-stellar-sdk/network"
)

const PubnetDisclaimer = "You are on the public network. Payments sent during this run move real funds."

// Mode is the network selection made by the pubnet flag.
type Mode struct {
	Pubnet     bool
	HorizonURL string
}

func (m Mode) Name() string {
	if m.Pubnet {
		return "pubnet"
	}
	return "testnet"
}

func (m Mode) Passphrase() string {
	if m.Pubnet {
		return stellarnetwork.PublicNetworkPassphrase
	}
	return stellarnetwork.TestNetworkPassphrase
}

// Horizon returns the configured Horizon URL, falling back to the SDK default for the selected network.
func (m Mode) Horizon() string {
	if m.HorizonURL != "" {
		return m.HorizonURL
	}
	if m.Pubnet {
		return horizonclient.DefaultPublicNetClient.HorizonURL
	}
	return horizonclient.DefaultTestNetClient.HorizonURL
}

// DisclaimerDisplay is the part of the UI that shows or hides the pubnet warning.
type DisclaimerDisplay interface {
	Disclaimer(visible bool, text string)
}

// Apply makes the UI reflect the selected network. It must run before the first step.
func (m Mode) Apply(display DisclaimerDisplay) {
	if m.Pubnet {
		display.Disclaimer(true, PubnetDisclaimer)
		return
	}
	display.Disclaimer(false, "")
}
