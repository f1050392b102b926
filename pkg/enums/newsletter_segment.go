package enums

import "fmt"

// NewsletterSegment is an audience a subscriber opted into.
type NewsletterSegment string

const (
	NewsletterSegmentWomen NewsletterSegment = "women"
	NewsletterSegmentMen   NewsletterSegment = "men"
	NewsletterSegmentKids  NewsletterSegment = "kids"
)

var validNewsletterSegments = []NewsletterSegment{
	NewsletterSegmentWomen,
	NewsletterSegmentMen,
	NewsletterSegmentKids,
}

// IsValid reports whether the value is a known NewsletterSegment.
func (s NewsletterSegment) IsValid() bool {
	for _, candidate := range validNewsletterSegments {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseNewsletterSegment converts raw input into a NewsletterSegment.
func ParseNewsletterSegment(value string) (NewsletterSegment, error) {
	for _, candidate := range validNewsletterSegments {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid newsletter segment %q", value)
}
