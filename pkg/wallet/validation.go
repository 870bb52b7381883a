package wallet

import (
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// addressRegex checks for a "0x" prefix followed by exactly 40 hexadecimal characters.
	addressRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
)

// ParseAddress validates a contract or account address and returns its checksummed
// form. Mixed-case input must carry a valid EIP-55 checksum.
//
// Example:
//
//	addr, err := ParseAddress("0x1FC10ef15E041C5D3C54042e52EB0C54CB9b710c")
//	if err != nil {
//	    log.Fatal(err)
//	}
func ParseAddress(address string) (common.Address, error) {
	address = strings.TrimSpace(address)

	if !addressRegex.MatchString(address) {
		return common.Address{}, NewWalletError(ErrCodeInvalidAddress, "invalid address format: "+address, nil, "")
	}

	addr := common.HexToAddress(address)
	lower := strings.ToLower(address)
	upper := "0x" + strings.ToUpper(address[2:])
	if address != lower && address != upper && address != addr.Hex() {
		return common.Address{}, NewWalletError(ErrCodeInvalidAddress, "invalid address checksum: "+address, nil, "")
	}

	return addr, nil
}
