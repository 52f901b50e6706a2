package network

import (
	"testing"

	"github.com/stellar/go-stellar-sdk/clients/horizonclient"
	stellarnetwork "github.com/stellar/go-stellar-sdk/network"
	"github.com/stretchr/testify/assert"
)

type disclaimerRecorder struct {
	visible bool
	text    string
	calls   int
}

func (d *disclaimerRecorder) Disclaimer(visible bool, text string) {
	d.visible = visible
	d.text = text
	d.calls++
}

func TestMode(t *testing.T) {
	t.Run("testnet", func(t *testing.T) {
		m := Mode{}
		assert.Equal(t, "testnet", m.Name())
		assert.Equal(t, stellarnetwork.TestNetworkPassphrase, m.Passphrase())
		assert.Equal(t, horizonclient.DefaultTestNetClient.HorizonURL, m.Horizon())
	})

	t.Run("pubnet", func(t *testing.T) {
		m := Mode{Pubnet: true}
		assert.Equal(t, "pubnet", m.Name())
		assert.Equal(t, stellarnetwork.PublicNetworkPassphrase, m.Passphrase())
		assert.Equal(t, horizonclient.DefaultPublicNetClient.HorizonURL, m.Horizon())
	})

	t.Run("horizon_override", func(t *testing.T) {
		m := Mode{Pubnet: true, HorizonURL: "http://localhost:8000"}
		assert.Equal(t, "http://localhost:8000", m.Horizon())
	})
}

func TestModeApply(t *testing.T) {
	t.Run("pubnet_shows_disclaimer", func(t *testing.T) {
		d := &disclaimerRecorder{}
		Mode{Pubnet: true}.Apply(d)
		assert.True(t, d.visible)
		assert.Equal(t, PubnetDisclaimer, d.text)
		assert.Equal(t, 1, d.calls)
	})

	t.Run("testnet_hides_disclaimer", func(t *testing.T) {
		d := &disclaimerRecorder{visible: true}
		Mode{}.Apply(d)
		assert.False(t, d.visible)
		assert.Empty(t, d.text)
	})
}
