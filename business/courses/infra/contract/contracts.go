package contract

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MarketplaceReadABI is the read surface of the course marketplace contract.
// Only includes the view functions the catalog and management flows call.
const MarketplaceReadABI = `[
	{
		"inputs": [],
		"name": "getCourseCount",
		"outputs": [
			{"internalType": "uint256", "name": "", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "index", "type": "uint256"}
		],
		"name": "getCourseHashAtIndex",
		"outputs": [
			{"internalType": "bytes32", "name": "", "type": "bytes32"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "courseHash", "type": "bytes32"}
		],
		"name": "getCourseByHash",
		"outputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "id", "type": "uint256"},
					{"internalType": "uint256", "name": "price", "type": "uint256"},
					{"internalType": "bytes32", "name": "proof", "type": "bytes32"},
					{"internalType": "address", "name": "owner", "type": "address"},
					{"internalType": "uint8", "name": "state", "type": "uint8"}
				],
				"internalType": "struct CourseMarketplace.Course",
				"name": "",
				"type": "tuple"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getContractOwner",
		"outputs": [
			{"internalType": "address", "name": "", "type": "address"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`

// courseRecord mirrors the contract's Course struct layout for decoding.
type courseRecord struct {
	Id    *big.Int
	Price *big.Int
	Proof [32]byte
	Owner common.Address
	State uint8
}
