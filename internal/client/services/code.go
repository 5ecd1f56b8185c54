package services

import (
	"slices"

	"github.com/dmitrijs2005/panelkeeper/internal/common"
)

// ValidateCode reports whether code is an acceptable panel user code:
// 4, 5 or 6 ASCII digits.
func ValidateCode(code string) bool {
	if !slices.Contains(common.PinLengths, len(code)) {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
