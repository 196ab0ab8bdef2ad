package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/xraph/fundme/types"
)

// client calls a fundme server on behalf of one account.
type client struct {
	base   string
	caller string
	http   *http.Client
}

func newClient(base, caller string) *client {
	return &client{base: base, caller: caller, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.caller != "" {
		req.Header.Set(callerHeader, c.caller)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) != nil || e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("%s %s: %s", method, path, e.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// clientFlags are shared by every client command.
type clientFlags struct {
	url    string
	caller string
	out    io.Writer
}

func (c *clientFlags) setFlags(f *flag.FlagSet) {
	f.StringVar(&c.url, "url", envOr(envURL, "http://localhost:8080"), "server URL")
	f.StringVar(&c.caller, "caller", envOr(envCaller, devAccounts[0].String()), "calling account")
}

func (c *clientFlags) client() *client { return newClient(c.url, c.caller) }

func (c *clientFlags) stdout() io.Writer {
	if c.out == nil {
		return os.Stdout
	}
	return c.out
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

// ==================== fund ====================

type fundCmd struct {
	clientFlags
	eth string
}

func (*fundCmd) Name() string     { return "fund" }
func (*fundCmd) Synopsis() string { return "contribute to the ledger" }
func (*fundCmd) Usage() string {
	return `fundme fund [-eth 0.1] [-caller <address>] [-url <server>]

  Contributes -eth ether from the calling account.
`
}

func (c *fundCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.eth, "eth", "0.1", "amount in ether")
}

func (c *fundCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := types.ParseEther(c.eth); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing amount: %v\n", err)
		return subcommands.ExitUsageError
	}

	w := c.stdout()
	fmt.Fprintln(w, "Contract funding...")
	var bal balanceResponse
	if err := c.client().do(ctx, http.MethodPost, "/fund", fundRequest{Amount: c.eth}, &bal); err != nil {
		return fail(err)
	}
	fmt.Fprintln(w, "Funded")
	fmt.Fprintf(w, "%s has contributed %s ETH\n", bal.Address, bal.Ether)
	return subcommands.ExitSuccess
}

// ==================== withdraw ====================

type withdrawCmd struct {
	clientFlags
	cheaper bool
}

func (*withdrawCmd) Name() string     { return "withdraw" }
func (*withdrawCmd) Synopsis() string { return "pay the pool to the owner" }
func (*withdrawCmd) Usage() string {
	return `fundme withdraw [-cheaper] [-caller <address>] [-url <server>]

  Withdraws everything held by the ledger. Only the owner may call it.
`
}

func (c *withdrawCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.BoolVar(&c.cheaper, "cheaper", false, "use the cached-iteration withdrawal")
}

func (c *withdrawCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	path := "/withdraw"
	if c.cheaper {
		path = "/withdraw/cheaper"
	}

	w := c.stdout()
	fmt.Fprintln(w, "Withdrawal...")
	var bal balanceResponse
	if err := c.client().do(ctx, http.MethodPost, path, nil, &bal); err != nil {
		return fail(err)
	}
	fmt.Fprintln(w, "Got it back")
	fmt.Fprintf(w, "%s now holds %s ETH\n", bal.Address, bal.Ether)
	return subcommands.ExitSuccess
}

// ==================== balance ====================

type balanceCmd struct {
	clientFlags
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show how much an address has contributed" }
func (*balanceCmd) Usage() string {
	return `fundme balance <address>
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *balanceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	addr, err := types.ParseAddress(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing address: %v\n", err)
		return subcommands.ExitUsageError
	}

	var bal balanceResponse
	if err := c.client().do(ctx, http.MethodGet, "/balance/"+addr.String(), nil, &bal); err != nil {
		return fail(err)
	}
	fmt.Fprintf(c.stdout(), "%s %s ETH\n", bal.Address, bal.Ether)
	return subcommands.ExitSuccess
}

// ==================== funders ====================

type fundersCmd struct {
	clientFlags
}

func (*fundersCmd) Name() string     { return "funders" }
func (*fundersCmd) Synopsis() string { return "list funders in contribution order" }
func (*fundersCmd) Usage() string {
	return `fundme funders
`
}

func (c *fundersCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *fundersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var resp struct {
		Funders []types.Address `json:"funders"`
	}
	if err := c.client().do(ctx, http.MethodGet, "/funders", nil, &resp); err != nil {
		return fail(err)
	}
	w := c.stdout()
	for i, addr := range resp.Funders {
		fmt.Fprintf(w, "%d\t%s\n", i, addr)
	}
	return subcommands.ExitSuccess
}
