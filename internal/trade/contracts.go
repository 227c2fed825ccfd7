package trade

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// cashABIJSON is the minimal CASH (ERC-20-style) ABI the orchestrator needs:
// the single approve() call fund() makes before calling ZSC.fund() (spec
// §4.7). Modelled the way 08-abigen's hand-written minimal ERC20 ABI is
// constructed rather than a generated binding, since the full CASH contract
// is an external collaborator out of this core's scope (spec §1).
const cashABIJSON = `[
	{"constant":false,"inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// zscABIJSON is the minimal ZSC (shielded token) ABI the orchestrator needs:
// register, fund, transfer, burn and the read-only simulateAccounts view
// (spec §4.7). The contract's full surface and on-chain semantics are an
// external collaborator (spec §1); this is only the calling convention.
const zscABIJSON = `[
	{"constant":false,"inputs":[{"name":"y","type":"uint256[2]"},{"name":"c","type":"uint256"},{"name":"s","type":"uint256"},{"name":"name","type":"string"}],"name":"register","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"y","type":"uint256[2]"},{"name":"amount","type":"uint256"}],"name":"fund","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"L","type":"uint256[2][]"},{"name":"R","type":"uint256[2]"},{"name":"y","type":"uint256[2][]"},{"name":"u","type":"uint256[2]"},{"name":"proof","type":"bytes"},{"name":"beneficiary","type":"uint256"}],"name":"transfer","outputs":[],"type":"function"},
	{"constant":false,"inputs":[{"name":"y","type":"uint256[2]"},{"name":"value","type":"uint256"},{"name":"u","type":"uint256[2]"},{"name":"proof","type":"bytes"}],"name":"burn","outputs":[],"type":"function"},
	{"constant":true,"inputs":[{"name":"y","type":"uint256[2][]"},{"name":"epoch","type":"uint256"}],"name":"simulateAccounts","outputs":[{"name":"","type":"uint256[2][2][]"}],"type":"function"}
]`

func parseCASHABI() (abi.ABI, error) { return abi.JSON(strings.NewReader(cashABIJSON)) }
func parseZSCABI() (abi.ABI, error)  { return abi.JSON(strings.NewReader(zscABIJSON)) }
