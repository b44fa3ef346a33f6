package contract

// MarketplaceWriteABI is the mutating surface of the course marketplace
// contract. The read surface lives with the courses context.
const MarketplaceWriteABI = `[
	{
		"inputs": [
			{"internalType": "bytes16", "name": "courseId", "type": "bytes16"},
			{"internalType": "bytes32", "name": "proof", "type": "bytes32"}
		],
		"name": "purchaseCourse",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "courseHash", "type": "bytes32"}
		],
		"name": "repurchaseCourse",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "courseHash", "type": "bytes32"}
		],
		"name": "activateCourse",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "bytes32", "name": "courseHash", "type": "bytes32"}
		],
		"name": "deactivateCourse",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "withdraw",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "emergencyWithdraw",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`
