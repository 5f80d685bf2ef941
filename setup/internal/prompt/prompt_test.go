package prompt

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/hostpager/setup/internal/config"
)

func newPrompter(input string) (*Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return New(strings.NewReader(input), &out), &out
}

func TestCollect_SkipsCloudOnEmptyTenant(t *testing.T) {
	input := strings.Join([]string{
		"",             // tenant
		"dd-api",       // api key
		"dd-app",       // app key
		"",             // site → default
		"rk",           // routing key
		"https://relay.example.com/webhook",
		"",             // shared secret
		"",             // hosts → default
	}, "\n") + "\n"
	p, _ := newPrompter(input)

	in, err := p.Collect()
	require.NoError(t, err)
	assert.Empty(t, in.AzureTenantID)
	assert.Empty(t, in.AzureClientID)
	assert.Equal(t, "dd-api", in.DatadogAPIKey)
	assert.Equal(t, config.DefaultDatadogSite, in.DatadogSite)
	assert.Equal(t, "MOVITAUTO,MOVEITXFR,PYXSFTP", in.TargetHosts)

	req, err := config.NewRequest(in)
	require.NoError(t, err)
	_, hasCloud := req.Cloud()
	assert.False(t, hasCloud)
}

func TestCollect_CloudBlockAndReprompt(t *testing.T) {
	input := strings.Join([]string{
		"tenant",
		"client",
		"",       // empty secret → re-prompt
		"secret",
		"sub",
		"dd-api",
		"dd-app",
		"datadoghq.eu",
		"rk",
		"https://relay.example.com/webhook",
		"shh",
		"web01, db02",
	}, "\n") + "\n"
	p, out := newPrompter(input)

	in, err := p.Collect()
	require.NoError(t, err)
	assert.Equal(t, "secret", in.AzureClientSecret)
	assert.Equal(t, "sub", in.AzureSubscriptionID)
	assert.Equal(t, "shh", in.RelaySharedSecret)
	assert.Contains(t, out.String(), "Client secret is required.")

	req, err := config.NewRequest(in)
	require.NoError(t, err)
	assert.Equal(t, "https://api.datadoghq.eu", req.Datadog().APIURL)
	assert.Len(t, req.TargetHosts(), 2)
}

func TestCollect_EOFAborts(t *testing.T) {
	p, _ := newPrompter("\n")
	_, err := p.Collect()
	assert.True(t, errors.Is(err, ErrAborted), "got %v", err)
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":    true,
		"YES\n":  true,
		"n\n":    false,
		"\n":     false,
		"sure\n": false,
	}
	for input, want := range tests {
		p, out := newPrompter(input)
		got, err := p.Confirm("Proceed?")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "Proceed? [y/N]")
	}
}

func TestAsk_LastLineWithoutNewline(t *testing.T) {
	p, _ := newPrompter("value")
	got, err := p.Ask("Field", "def")
	require.NoError(t, err)
	assert.Equal(t, "value", got)
}
