package valueobject

import (
	"fmt"
	"strings"
)

// LoanCategory classifies what a loan was taken out for.
type LoanCategory struct {
	value string
}

var (
	LoanCategoryPersonal  = LoanCategory{value: "Personal"}
	LoanCategoryHome      = LoanCategory{value: "Home"}
	LoanCategoryAuto      = LoanCategory{value: "Auto"}
	LoanCategoryEducation = LoanCategory{value: "Education"}
)

var validLoanCategories = map[string]LoanCategory{
	"personal":  LoanCategoryPersonal,
	"home":      LoanCategoryHome,
	"auto":      LoanCategoryAuto,
	"education": LoanCategoryEducation,
}

// NewLoanCategory parses a category name case-insensitively.
func NewLoanCategory(s string) (LoanCategory, error) {
	v, ok := validLoanCategories[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return LoanCategory{}, fmt.Errorf("invalid loan category: %q", s)
	}
	return v, nil
}

func (c LoanCategory) String() string { return c.value }
func (c LoanCategory) IsZero() bool { return c.value == "" }
func (c LoanCategory) Equal(other LoanCategory) bool { return c.value == other.value }
