package gateway

// Platform-wide pricing constants. The fee rate is a fixed platform
// policy, not configuration.
const (
	FeeRatePercent         = 15
	MinimumUnitAmountCents = 50
)

// Quote is the amount actually charged for a session plus its split.
type Quote struct {
	UnitAmountCents int64
	FeeCents        int64
	NetCents        int64
}

// QuoteFor clamps the price to the gateway minimum and takes the platform
// fee, floored, out of the charged amount.
func QuoteFor(priceCents int64) Quote {
	unit := priceCents
	if unit < MinimumUnitAmountCents {
		unit = MinimumUnitAmountCents
	}
	fee := unit * FeeRatePercent / 100
	return Quote{
		UnitAmountCents: unit,
		FeeCents:        fee,
		NetCents:        unit - fee,
	}
}
