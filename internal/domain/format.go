package domain

// IssuerFormat tags which statement layout a record was extracted from.
type IssuerFormat string

const (
	FormatUnknown IssuerFormat = ""
	// FormatA is the block-oriented layout (Mastercard statements).
	FormatA IssuerFormat = "format_a"
	// FormatB is the line-oriented layout (Visa statements).
	FormatB IssuerFormat = "format_b"
)

// CardType returns the card brand printed in output rows.
func (f IssuerFormat) CardType() string {
	switch f {
	case FormatA:
		return "Mastercard"
	case FormatB:
		return "Visa"
	default:
		return ""
	}
}

func (f IssuerFormat) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}
