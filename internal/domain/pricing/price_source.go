package pricing

// PriceSource is a category of pricing rule with a fixed precedence order
type PriceSource string

const (
	SourceOverride         PriceSource = "override"
	SourceContract         PriceSource = "contract"
	SourceCustomerSpecific PriceSource = "customer_specific"
	SourceVolume           PriceSource = "volume"
	SourcePromotional      PriceSource = "promotional"
	SourceStandard         PriceSource = "standard"
	SourceChannel          PriceSource = "channel"
	SourceRegional         PriceSource = "regional"
)

// IsValid checks if the price source is valid
func (s PriceSource) IsValid() bool {
	switch s {
	case SourceOverride, SourceContract, SourceCustomerSpecific, SourceVolume,
		SourcePromotional, SourceStandard, SourceChannel, SourceRegional:
		return true
	}
	return false
}

// String returns the string representation of the price source
func (s PriceSource) String() string {
	return string(s)
}

// ListType returns the price list type that backs this source.
// SourceOverride has no backing list type and returns false.
func (s PriceSource) ListType() (PriceListType, bool) {
	switch s {
	case SourceContract:
		return TypeContract, true
	case SourceCustomerSpecific:
		return TypeCustomer, true
	case SourceVolume:
		return TypeVolume, true
	case SourcePromotional:
		return TypePromotional, true
	case SourceStandard:
		return TypeStandard, true
	case SourceChannel:
		return TypeChannel, true
	case SourceRegional:
		return TypeRegional, true
	}
	return "", false
}

// RequiresAssignment reports whether lists of this source are only visible
// to requesters with a matching CustomerPriceAssignment
func (s PriceSource) RequiresAssignment() bool {
	switch s {
	case SourceContract, SourceCustomerSpecific, SourceChannel:
		return true
	}
	return false
}

// DefaultResolutionOrder returns the default source precedence.
// Overrides are evaluated before any of these and are not part of the order.
func DefaultResolutionOrder() []PriceSource {
	return []PriceSource{
		SourceContract,
		SourceCustomerSpecific,
		SourceVolume,
		SourcePromotional,
		SourceStandard,
	}
}
