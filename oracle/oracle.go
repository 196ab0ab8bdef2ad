// Package oracle defines the price feed consumed by the ledger and the
// validation applied to every reading before it is trusted.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/xraph/fundme/types"
)

var (
	// ErrUnavailable is returned when the feed could not be read.
	ErrUnavailable = errors.New("oracle: price feed unavailable")

	// ErrInvalidPrice is returned when a reading fails validation.
	ErrInvalidPrice = errors.New("oracle: invalid price")
)

// MaxDecimals bounds the precision a feed may report.
const MaxDecimals = 36

// PriceFeed reports the price of one native unit in the reference
// currency, scaled by 10^Decimals.
type PriceFeed interface {
	LatestRoundData(ctx context.Context) (RoundData, error)
	Decimals() uint8
	Address() types.Address
}

// RoundData is a raw feed reading.
type RoundData struct {
	RoundID   uint64
	Answer    *big.Int
	StartedAt time.Time
	UpdatedAt time.Time
}

// Price is a reading that passed validation.
type Price struct {
	Answer    *big.Int
	Decimals  uint8
	RoundID   uint64
	UpdatedAt time.Time
}

// Read fetches the latest round from feed and validates it. A zero maxAge
// disables the staleness check.
func Read(ctx context.Context, feed PriceFeed, now time.Time, maxAge time.Duration) (Price, error) {
	if feed == nil {
		return Price{}, fmt.Errorf("%w: no feed configured", ErrUnavailable)
	}

	round, err := feed.LatestRoundData(ctx)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	p := Price{
		Answer:    round.Answer,
		Decimals:  feed.Decimals(),
		RoundID:   round.RoundID,
		UpdatedAt: round.UpdatedAt,
	}
	if err := p.validate(now, maxAge); err != nil {
		return Price{}, err
	}

	p.Answer = new(big.Int).Set(round.Answer)
	return p, nil
}

func (p Price) validate(now time.Time, maxAge time.Duration) error {
	switch {
	case p.Answer == nil:
		return fmt.Errorf("%w: missing answer", ErrInvalidPrice)
	case p.Answer.Sign() <= 0:
		return fmt.Errorf("%w: non-positive answer %s", ErrInvalidPrice, p.Answer)
	case p.Decimals > MaxDecimals:
		return fmt.Errorf("%w: %d decimals exceeds %d", ErrInvalidPrice, p.Decimals, MaxDecimals)
	case p.UpdatedAt.IsZero():
		return fmt.Errorf("%w: round %d never updated", ErrInvalidPrice, p.RoundID)
	case p.UpdatedAt.After(now):
		return fmt.Errorf("%w: round %d updated in the future", ErrInvalidPrice, p.RoundID)
	case maxAge > 0 && now.Sub(p.UpdatedAt) > maxAge:
		return fmt.Errorf("%w: round %d is %s old", ErrInvalidPrice, p.RoundID, now.Sub(p.UpdatedAt).Truncate(time.Second))
	}
	return nil
}

// Convert returns the reference-currency value of amount wei, scaled by
// 10^18. The answer is first normalised to 18 decimals, so an 8-decimal
// feed is multiplied by 10^10 before the product is divided by 10^18.
// Intermediate products beyond 256 bits return types.ErrOverflow.
func (p Price) Convert(amount types.Amount) (types.Amount, error) {
	price := new(big.Int).Set(p.Answer)
	divisor := pow10(types.Decimals)

	if p.Decimals <= types.Decimals {
		price.Mul(price, pow10(types.Decimals-int(p.Decimals)))
	} else {
		divisor = pow10(int(p.Decimals))
	}

	product, err := amount.Mul(price)
	if err != nil {
		return types.Zero, err
	}
	return product.Quo(divisor), nil
}

// String renders the price in whole reference units.
func (p Price) String() string {
	if p.Answer == nil {
		return "<nil>"
	}
	a, err := types.NewAmount(p.Answer)
	if err != nil {
		return p.Answer.String()
	}
	return a.Decimal().Shift(int32(types.Decimals) - int32(p.Decimals)).String()
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
