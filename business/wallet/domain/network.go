package domain

// networkNames maps chain ids to display names.
var networkNames = map[uint64]string{
	1:    "Ethereum Main Network",
	3:    "Ropsten Test Network",
	4:    "Rinkeby Test Network",
	5:    "Goerli Test Network",
	42:   "Kovan Test Network",
	56:   "Binance Smart Chain",
	1337: "Ganache",
}

// Network is the resolved view of the chain the wallet is connected to.
type Network struct {
	ChainID     uint64
	Name        string
	TargetName  string
	IsSupported bool
}

// NetworkName maps a chain id to its display name.
func NetworkName(chainID uint64) (string, bool) {
	name, ok := networkNames[chainID]
	return name, ok
}

// ResolveNetwork builds the Network view for a connected chain against the
// configured target. ok is false when the chain id is not in the name table.
func ResolveNetwork(chainID, targetChainID uint64) (Network, bool) {
	name, ok := networkNames[chainID]
	if !ok {
		return Network{}, false
	}
	targetName := networkNames[targetChainID]
	return Network{
		ChainID:     chainID,
		Name:        name,
		TargetName:  targetName,
		IsSupported: name == targetName,
	}, true
}
