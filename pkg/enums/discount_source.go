package enums

// DiscountSource records which ledger satisfied a discount code.
type DiscountSource string

const (
	DiscountSourceNone      DiscountSource = ""
	DiscountSourceMaster    DiscountSource = "master"
	DiscountSourceLoyalty   DiscountSource = "loyalty"
	DiscountSourcePromotion DiscountSource = "promotion"
)

// String implements fmt.Stringer.
func (s DiscountSource) String() string {
	return string(s)
}
