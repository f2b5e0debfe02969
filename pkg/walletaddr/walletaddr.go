// Package walletaddr validates payout and deposit wallet addresses.
package walletaddr

import (
	"errors"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// TRON base58 addresses are 34 characters and start with T.
var tronPattern = regexp.MustCompile(`^T[1-9A-HJ-NP-Za-km-z]{33}$`)

type Kind string

const (
	KindEVM  Kind = "evm"
	KindTron Kind = "tron"
)

// Detect reports which network family the address belongs to.
func Detect(addr string) (Kind, error) {
	addr = strings.TrimSpace(addr)
	switch {
	case tronPattern.MatchString(addr):
		return KindTron, nil
	case strings.HasPrefix(addr, "0x") && common.IsHexAddress(addr):
		return KindEVM, nil
	}
	return "", ErrInvalidAddress
}

func Validate(addr string) error {
	_, err := Detect(addr)
	return err
}
