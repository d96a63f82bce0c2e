package profile

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/kollektive-hackathon/arbiter-agent/internal/pkg/chain"
)

// UnknownLabel is what the sentinel address always renders as.
const UnknownLabel = "Unknown"

var adjectives = [...]string{
	"Neon", "Cyber", "Swift", "Shadow", "Frost", "Blaze", "Void", "Logic", "Zen", "Nova",
	"Iron", "Golden", "Hidden", "Primal", "Storm", "Eon", "Solar", "Lunar", "Crimson", "Azure",
}

var nouns = [...]string{
	"Wolf", "Ninja", "Reaper", "Specter", "Viper", "Titan", "Hunter", "Blade", "Pulse", "Ghost",
	"Nexus", "Oracle", "Striker", "Wraith", "Zero", "Apex", "Dawn", "Dusk", "Cortex", "Siren",
}

// DeterministicName derives a stable pseudo-name from the address alone, so
// an unregistered address renders the same "<Adjective> <Noun> #NNN" on every
// call and across restarts, with zero network traffic. The hash is the int32
// djb-style accumulator over the lowercased hex string; int32 wraparound is
// part of the contract and must not be "fixed".
func DeterministicName(addr common.Address) string {
	if addr == chain.ZeroAddress {
		return UnknownLabel
	}

	s := strings.ToLower(addr.Hex())
	var h int32
	for i := 0; i < len(s); i++ {
		h = (h << 5) - h + int32(s[i])
	}

	a := int64(h)
	if a < 0 {
		a = -a
	}

	adjective := adjectives[a%int64(len(adjectives))]
	noun := nouns[(a>>8)%int64(len(nouns))]
	return fmt.Sprintf("%s %s #%03d", adjective, noun, a%999)
}
