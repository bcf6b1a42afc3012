// Package chains holds the static, process-wide table of supported EVM
// chains and their capabilities.
package chains

import "fmt"

// Chain describes one supported network: its numeric chain id, the bases
// used to reach its block explorer ABI API, and whether it serves
// eth_getBlockReceipts.
type Chain struct {
	Name                 string
	ID                   int64
	BlockExplorerBase    string
	ABISourceAPIBase     string
	ABISourceRequireAuth bool
	SupportsBlocksReceipts bool
	// BlocksReorg is the small per-chain constant the head follower
	// re-fetches on every new head to absorb short reorganizations.
	BlocksReorg int64
}

// ErrUnknownChain is returned by Get when the name does not match any
// registered chain.
type ErrUnknownChain struct {
	Name string
}

func (e *ErrUnknownChain) Error() string {
	return fmt.Sprintf("chains: unknown chain %q", e.Name)
}

var registry = map[string]Chain{
	"ethereum": {
		Name:                   "ethereum",
		ID:                     1,
		BlockExplorerBase:      "https://etherscan.io/",
		ABISourceAPIBase:       "https://api.etherscan.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            12,
	},
	"polygon": {
		Name:                   "polygon",
		ID:                     137,
		BlockExplorerBase:      "https://polygonscan.com/",
		ABISourceAPIBase:       "https://api.polygonscan.com/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            15,
	},
	"bsc": {
		Name:                   "bsc",
		ID:                     56,
		BlockExplorerBase:      "https://bscscan.com/",
		ABISourceAPIBase:       "https://api.bscscan.com/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            15,
	},
	"fantom": {
		Name:                   "fantom",
		ID:                     250,
		BlockExplorerBase:      "https://ftmscan.com/",
		ABISourceAPIBase:       "https://api.ftmscan.com/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            10,
	},
	"gnosis": {
		Name:                   "gnosis",
		ID:                     100,
		BlockExplorerBase:      "https://gnosisscan.io/",
		ABISourceAPIBase:       "https://api.gnosisscan.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            12,
	},
	"optimism": {
		Name:                   "optimism",
		ID:                     10,
		BlockExplorerBase:      "https://optimistic.etherscan.io/",
		ABISourceAPIBase:       "https://api-optimistic.etherscan.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: false,
		BlocksReorg:            10,
	},
	"arbitrum": {
		Name:                   "arbitrum",
		ID:                     42161,
		BlockExplorerBase:      "https://arbiscan.io/",
		ABISourceAPIBase:       "https://api.arbiscan.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: false,
		BlocksReorg:            10,
	},
	"arbitrum-nova": {
		Name:                   "arbitrum-nova",
		ID:                     42170,
		BlockExplorerBase:      "https://nova.arbiscan.io/",
		ABISourceAPIBase:       "https://api-nova.arbiscan.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: false,
		BlocksReorg:            10,
	},
	"moonbeam": {
		Name:                   "moonbeam",
		ID:                     1284,
		BlockExplorerBase:      "https://moonscan.io/",
		ABISourceAPIBase:       "https://api-moonbeam.moonscan.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            12,
	},
	"avalanche": {
		Name:                   "avalanche",
		ID:                     43114,
		BlockExplorerBase:      "https://snowtrace.io/",
		ABISourceAPIBase:       "https://api.snowtrace.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            12,
	},
	"bittorrent": {
		Name:                   "bittorrent",
		ID:                     199,
		BlockExplorerBase:      "https://bttcscan.com/",
		ABISourceAPIBase:       "https://api.bttcscan.com/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: false,
		BlocksReorg:            15,
	},
	"celo": {
		Name:                   "celo",
		ID:                     42220,
		BlockExplorerBase:      "https://celoscan.io/",
		ABISourceAPIBase:       "https://api.celoscan.io/",
		ABISourceRequireAuth:   true,
		SupportsBlocksReceipts: true,
		BlocksReorg:            10,
	},
}

// aliases maps alternate chain names to their canonical registry entry.
var aliases = map[string]string{
	"mainnet": "ethereum",
}

// Get looks up a chain by name, resolving known aliases first. It fails
// loudly with ErrUnknownChain when the name is not registered.
func Get(name string) (Chain, error) {
	if canonical, ok := aliases[name]; ok {
		name = canonical
	}
	c, ok := registry[name]
	if !ok {
		return Chain{}, &ErrUnknownChain{Name: name}
	}
	return c, nil
}

// MustGet is Get but panics on an unknown chain; used only where the name
// has already been validated (e.g. in tests or after CLI validation).
func MustGet(name string) Chain {
	c, err := Get(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns the canonical names of every registered chain.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
