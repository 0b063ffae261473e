package contracts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Network holds the deployment addresses for one chain.
type Network struct {
	Name           string
	ChainID        int64
	IssuanceModule common.Address // basic issuance module receiving issue/redeem
	SetToken       common.Address // index token issued and redeemed
	ExplorerURL    string         // base URL, without trailing slash
}

// Mainnet is the Ethereum mainnet deployment.
var Mainnet = Network{
	Name:           "mainnet",
	ChainID:        1,
	IssuanceModule: common.HexToAddress("0x0f0eE18189FB5472226A7E54e0c7a3BB1155705D"),
	SetToken:       common.HexToAddress("0xf9d50338Fb100B5a97e79615a8a912e10975b61c"),
	ExplorerURL:    "https://etherscan.io",
}

var networks = map[string]Network{
	Mainnet.Name: Mainnet,
}

// LookupNetwork returns the deployment registered under name (case-insensitive).
func LookupNetwork(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("unknown network %q (known: %s)", name, strings.Join(NetworkNames(), ", "))
	}
	return n, nil
}

// NetworkNames lists registered network names in sorted order.
func NetworkNames() []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TxURL returns the explorer page for a transaction hash.
func (n Network) TxURL(txHash string) string {
	return fmt.Sprintf("%s/tx/%s", n.ExplorerURL, txHash)
}
