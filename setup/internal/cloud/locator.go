package cloud

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	azcloud "github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v4"
	"github.com/samber/lo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/obsidianstack/hostpager/pkg/types"
	"github.com/obsidianstack/hostpager/setup/internal/config"
	"github.com/obsidianstack/hostpager/setup/internal/result"
)

const defaultTimeout = 30 * time.Second

// Instance is one discovered virtual machine.
type Instance struct {
	Name          string `json:"name"`
	ID            string `json:"id"`
	Location      string `json:"location"`
	ResourceGroup string `json:"resource_group"`
}

// Locator authenticates against Azure AD and lists compute instances.
type Locator struct {
	creds   config.Cloud
	client  *http.Client
	timeout time.Duration
	token   *oauth2.Token
}

// Option configures a Locator.
type Option func(*Locator)

// WithHTTPClient sets the client used for both the token and ARM requests.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Locator) { l.client = c }
}

// WithTimeout overrides the per-call timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(l *Locator) { l.timeout = d }
}

// New creates a Locator for the given credentials.
func New(creds config.Cloud, opts ...Option) *Locator {
	l := &Locator{
		creds:   creds,
		client:  &http.Client{Timeout: defaultTimeout},
		timeout: defaultTimeout,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Locator) tokenURL() string {
	return l.creds.AuthorityHost + "/" + l.creds.TenantID + "/oauth2/v2.0/token"
}

// Authenticate obtains an ARM bearer token. Any failure is logged with the
// provider's status and body and returned as a failed Result.
func (l *Locator) Authenticate(ctx context.Context) result.Result {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.client)

	cc := clientcredentials.Config{
		ClientID:     l.creds.ClientID,
		ClientSecret: l.creds.ClientSecret,
		TokenURL:     l.tokenURL(),
		Scopes:       []string{l.creds.ResourceMgrURL + "/.default"},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	tok, err := cc.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			slog.Error("cloud: authentication rejected",
				"tenant", l.creds.TenantID,
				"status", re.Response.StatusCode,
				"body", string(re.Body),
			)
			return result.AuthFailed(re.Response.StatusCode, string(re.Body))
		}
		slog.Error("cloud: token request failed", "tenant", l.creds.TenantID, "err", err)
		return result.Transport(err, "token request to %s", l.tokenURL())
	}

	l.token = tok
	slog.Info("cloud: authenticated", "tenant", l.creds.TenantID, "client_id", l.creds.ClientID)
	return result.Success(http.StatusOK, "authenticated service principal %s", l.creds.ClientID)
}

// Authenticated reports whether Authenticate has succeeded.
func (l *Locator) Authenticated() bool {
	return l.token != nil
}

// FindTargetVMs lists every VM in the subscription and returns those whose
// name contains one of targets (case-insensitive). On failure the slice is
// empty and the Result says why; zero matches is a successful Result.
func (l *Locator) FindTargetVMs(ctx context.Context, targets types.HostSet) ([]Instance, result.Result) {
	if l.token == nil {
		slog.Warn("cloud: find target VMs called before authentication")
		return nil, result.Failed(result.KindAuth, "not authenticated")
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	vms, err := armcompute.NewVirtualMachinesClient(l.creds.SubscriptionID, &tokenCredential{token: l.token}, l.clientOptions())
	if err != nil {
		slog.Error("cloud: build compute client", "err", err)
		return nil, result.Transport(err, "build compute client")
	}

	var all []*armcompute.VirtualMachine
	pages := 0
	pager := vms.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			var re *azcore.ResponseError
			if errors.As(err, &re) {
				slog.Error("cloud: list virtual machines rejected",
					"subscription", l.creds.SubscriptionID,
					"status", re.StatusCode,
					"code", re.ErrorCode,
				)
				return nil, result.Rejected(re.StatusCode, re.ErrorCode)
			}
			slog.Error("cloud: list virtual machines failed", "subscription", l.creds.SubscriptionID, "err", err)
			return nil, result.Transport(err, "list virtual machines")
		}
		pages++
		all = append(all, page.Value...)
	}

	matches := lo.FilterMap(all, func(vm *armcompute.VirtualMachine, _ int) (Instance, bool) {
		if vm == nil || vm.Name == nil || !targets.Match(*vm.Name) {
			return Instance{}, false
		}
		return toInstance(vm), true
	})

	slog.Info("cloud: virtual machines listed",
		"subscription", l.creds.SubscriptionID,
		"pages", pages,
		"total", len(all),
		"matched", len(matches),
	)
	return matches, result.Success(http.StatusOK, "%d of %d VMs matched the target hosts", len(matches), len(all))
}

func (l *Locator) clientOptions() *arm.ClientOptions {
	return &arm.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Cloud: azcloud.Configuration{
				ActiveDirectoryAuthorityHost: l.creds.AuthorityHost,
				Services: map[azcloud.ServiceName]azcloud.ServiceConfiguration{
					azcloud.ResourceManager: {
						Audience: l.creds.ResourceMgrURL,
						Endpoint: l.creds.ResourceMgrURL,
					},
				},
			},
			Retry:     policy.RetryOptions{MaxRetries: -1},
			Transport: l.client,
		},
	}
}

func toInstance(vm *armcompute.VirtualMachine) Instance {
	inst := Instance{
		Name:     lo.FromPtr(vm.Name),
		ID:       lo.FromPtr(vm.ID),
		Location: lo.FromPtr(vm.Location),
	}
	if rid, err := arm.ParseResourceID(inst.ID); err == nil {
		inst.ResourceGroup = rid.ResourceGroupName
	}
	return inst
}

// tokenCredential hands an already-acquired oauth2 token to the Azure SDK.
type tokenCredential struct {
	token *oauth2.Token
}

func (c *tokenCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	expires := c.token.Expiry
	if expires.IsZero() {
		expires = time.Now().Add(time.Hour)
	}
	return azcore.AccessToken{Token: c.token.AccessToken, ExpiresOn: expires}, nil
}
