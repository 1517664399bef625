package chains

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

type Blockchain struct {
	ID    int64
	IDHex string
	Name  string
}

func newBlockchain(id int64, name string) *Blockchain {
	return &Blockchain{ID: id, IDHex: HexID(id), Name: name}
}

var (
	Array = []*Blockchain{
		newBlockchain(1, "eth"),
		newBlockchain(10, "optimism"),
		newBlockchain(56, "bsc"),
		newBlockchain(137, "polygon"),
		newBlockchain(8453, "base"),
		newBlockchain(42161, "arbitrum"),
		newBlockchain(84532, "base sepolia"),
		newBlockchain(11155111, "sepolia"),
	}

	Mapping = func() map[int64]*Blockchain {
		m := make(map[int64]*Blockchain, len(Array))
		for _, c := range Array {
			m[c.ID] = c
		}
		return m
	}()
)

// HexID renders a chain id the way EIP-1193 providers expect it, e.g. 8453 -> "0x2105".
func HexID(id int64) string {
	return hexutil.EncodeUint64(uint64(id))
}

// Name returns a display name for the chain, falling back to "chain <id>".
func Name(id int64) string {
	if c, ok := Mapping[id]; ok {
		return c.Name
	}
	return fmt.Sprintf("chain %d", id)
}
