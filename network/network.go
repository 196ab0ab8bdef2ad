// Package network describes the chains a ledger can be deployed against
// and resolves the price feed each one uses.
package network

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/xraph/fundme/oracle"
	"github.com/xraph/fundme/types"
)

// ErrUnknownNetwork is returned when a network is not in the registry.
var ErrUnknownNetwork = errors.New("network: unknown network")

// DevelopmentChains are served by a local MockAggregator rather than a
// deployed feed.
var DevelopmentChains = []string{"hardhat", "localhost"}

// Network is a deployment target.
type Network struct {
	Name               string        `json:"name" yaml:"name"`
	ChainID            uint64        `json:"chain_id" yaml:"chain_id"`
	PriceFeed          types.Address `json:"eth_usd_price_feed" yaml:"eth_usd_price_feed"`
	BlockConfirmations int           `json:"block_confirmations" yaml:"block_confirmations"`
}

// IsDevelopment reports whether n is a local development chain.
func (n Network) IsDevelopment() bool {
	return IsDevelopment(n.Name)
}

// IsDevelopment reports whether name is a local development chain.
func IsDevelopment(name string) bool {
	return slices.Contains(DevelopmentChains, name)
}

// Registry indexes networks by name.
type Registry struct {
	networks map[string]Network
}

// NewRegistry creates a registry holding nets.
func NewRegistry(nets ...Network) *Registry {
	r := &Registry{networks: make(map[string]Network, len(nets))}
	for _, n := range nets {
		r.networks[n.Name] = n
	}
	return r
}

// Default returns the built-in registry: the local chains plus Sepolia
// with its ETH/USD aggregator.
func Default() *Registry {
	return NewRegistry(
		Network{Name: "hardhat", ChainID: 31337, BlockConfirmations: 1},
		Network{Name: "localhost", ChainID: 31337, BlockConfirmations: 1},
		Network{
			Name:               "sepolia",
			ChainID:            11155111,
			PriceFeed:          types.MustParseAddress("0x694AA1769357215DE4FAC081bf1f309aDC325306"),
			BlockConfirmations: 6,
		},
	)
}

type fileFormat struct {
	Networks []Network `yaml:"networks"`
}

// Load reads a YAML registry from path. Entries override the built-in
// registry by name.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("network: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML registry document on top of Default.
func Parse(data []byte) (*Registry, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("network: parse registry: %w", err)
	}

	r := Default()
	for _, n := range f.Networks {
		if n.Name == "" {
			return nil, errors.New("network: entry without a name")
		}
		if !IsDevelopment(n.Name) && n.PriceFeed.IsZero() {
			return nil, fmt.Errorf("network: %s: eth_usd_price_feed is required", n.Name)
		}
		r.networks[n.Name] = n
	}
	return r, nil
}

// Lookup returns the named network.
func (r *Registry) Lookup(name string) (Network, error) {
	n, ok := r.networks[name]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return n, nil
}

// ByChainID returns the first network with the given chain ID, in name order.
func (r *Registry) ByChainID(chainID uint64) (Network, error) {
	for _, name := range r.Names() {
		if n := r.networks[name]; n.ChainID == chainID {
			return n, nil
		}
	}
	return Network{}, fmt.Errorf("%w: chain id %d", ErrUnknownNetwork, chainID)
}

// Names returns the registered network names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.networks))
	for name := range r.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dialer connects to the deployed feed of a live network.
type Dialer func(n Network) (oracle.PriceFeed, error)

// ResolveFeed returns the price feed for the named network: mock on a
// development chain, otherwise the feed produced by dial for the
// registered aggregator address.
func (r *Registry) ResolveFeed(name string, mock oracle.PriceFeed, dial Dialer) (oracle.PriceFeed, Network, error) {
	n, err := r.Lookup(name)
	if err != nil {
		return nil, Network{}, err
	}

	if n.IsDevelopment() {
		if mock == nil {
			mock = oracle.NewDefaultMockAggregator()
		}
		return mock, n, nil
	}

	if dial == nil {
		return nil, n, fmt.Errorf("network: %s: no dialer for feed %s", n.Name, n.PriceFeed)
	}
	feed, err := dial(n)
	if err != nil {
		return nil, n, fmt.Errorf("network: %s: dial feed %s: %w", n.Name, n.PriceFeed, err)
	}
	return feed, n, nil
}
