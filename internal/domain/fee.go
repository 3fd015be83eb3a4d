package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNegativeFee indicates a transaction whose only positive-looking fee is negative.
var ErrNegativeFee = errors.New("negative network fee")

// Fee is the network fee of a transaction, tagged by the currency it is paid in.
// Implementations are ZeroFee, ParentFee and PrimaryFee.
type Fee interface {
	fee()
}

// ZeroFee is a transaction with no fee, or with the fee not yet calculated.
type ZeroFee struct{}

// ParentFee is paid in the wallet's parent currency, e.g. gas for a token transfer.
type ParentFee struct {
	Amount decimal.Decimal
}

// PrimaryFee is paid in the currency being sent.
type PrimaryFee struct {
	Amount decimal.Decimal
}

func (ZeroFee) fee()    {}
func (ParentFee) fee()  {}
func (PrimaryFee) fee() {}

// FeeLevel classifies a fee by its USD-equivalent value.
type FeeLevel int

const (
	FeeNormal FeeLevel = iota
	FeeWarning
	FeeDanger
)

// String returns the lower-case level name.
func (l FeeLevel) String() string {
	switch l {
	case FeeNormal:
		return "normal"
	case FeeWarning:
		return "warning"
	case FeeDanger:
		return "danger"
	default:
		return fmt.Sprintf("FeeLevel(%d)", int(l))
	}
}

// MarshalText encodes the level by name.
func (l FeeLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *FeeLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*l = FeeNormal
	case "warning":
		*l = FeeWarning
	case "danger":
		*l = FeeDanger
	default:
		return fmt.Errorf("unknown fee level %q", text)
	}
	return nil
}
