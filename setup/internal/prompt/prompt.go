package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/obsidianstack/hostpager/pkg/types"
	"github.com/obsidianstack/hostpager/setup/internal/config"
)

// ErrAborted is returned when input ends before a required answer was given.
var ErrAborted = errors.New("prompt: input closed")

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal file descriptor used for no-echo reads, or -1.
	fd int
}

// New creates a Prompter. Secrets are read without echo when in is a terminal.
func New(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) readSecret() (string, error) {
	if p.fd < 0 {
		return p.readLine()
	}
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// Ask prints label and returns the answer, or def when the answer is empty.
func (p *Prompter) Ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	v, err := p.readLine()
	if err != nil {
		return "", err
	}
	if v == "" {
		return def, nil
	}
	return v, nil
}

// Required asks until a non-empty answer is given.
func (p *Prompter) Required(label string, secret bool) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", label)
		var (
			v   string
			err error
		)
		if secret {
			v, err = p.readSecret()
		} else {
			v, err = p.readLine()
		}
		if err != nil {
			return "", err
		}
		if v != "" {
			return v, nil
		}
		fmt.Fprintf(p.out, "  %s is required.\n", label)
	}
}

// Secret asks once for an optional secret.
func (p *Prompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s (optional): ", label)
	return p.readSecret()
}

// Confirm asks a yes/no question defaulting to no.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", question)
	v, err := p.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(v) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Collect prompts for every setup field. The Azure block is skipped when the
// tenant ID is left empty.
func (p *Prompter) Collect() (config.Input, error) {
	var (
		in  config.Input
		err error
	)
	ask := func(dst *string, f func() (string, error)) {
		if err != nil {
			return
		}
		*dst, err = f()
	}

	fmt.Fprintln(p.out, "Azure (optional, used to discover VMs)")
	ask(&in.AzureTenantID, func() (string, error) { return p.Ask("  Tenant ID (empty to skip)", "") })
	if err == nil && in.AzureTenantID != "" {
		ask(&in.AzureClientID, func() (string, error) { return p.Required("  Client ID", false) })
		ask(&in.AzureClientSecret, func() (string, error) { return p.Required("  Client secret", true) })
		ask(&in.AzureSubscriptionID, func() (string, error) { return p.Required("  Subscription ID", false) })
	}

	fmt.Fprintln(p.out, "Datadog")
	ask(&in.DatadogAPIKey, func() (string, error) { return p.Required("  API key", true) })
	ask(&in.DatadogAppKey, func() (string, error) { return p.Required("  Application key", true) })
	ask(&in.DatadogSite, func() (string, error) { return p.Ask("  Site", config.DefaultDatadogSite) })

	fmt.Fprintln(p.out, "PagerDuty")
	ask(&in.PagerDutyRoutingKey, func() (string, error) { return p.Required("  Integration routing key", true) })

	fmt.Fprintln(p.out, "Relay")
	ask(&in.RelayWebhookURL, func() (string, error) { return p.Required("  Public webhook URL (https://host/webhook)", false) })
	ask(&in.RelaySharedSecret, func() (string, error) { return p.Secret("  Shared secret") })
	ask(&in.TargetHosts, func() (string, error) { return p.Ask("  Target hosts", types.DefaultHosts().String()) })

	if err != nil {
		return config.Input{}, err
	}
	return in, nil
}
