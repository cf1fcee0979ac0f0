package sui

import (
	"fmt"
	"math/big"
	"strings"
)

// FormattedSuiAmount formats a MIST amount as SUI, chopping trailing zeros.
func FormattedSuiAmount(mist *big.Int) string {
	if mist == nil {
		return "0"
	}
	formattedAmount := new(big.Rat).SetFrac(mist, big.NewInt(MistPerSui)).FloatString(SuiDecimals)
	formattedAmount = strings.TrimRight(formattedAmount, "0")
	formattedAmount = strings.TrimRight(formattedAmount, ".")
	return formattedAmount
}

func FormattedMist(mist uint64) string {
	return FormattedSuiAmount(new(big.Int).SetUint64(mist))
}

// ParseSuiAmount parses a decimal SUI amount (ie: 1.5) into MIST.
func ParseSuiAmount(amount string) (uint64, error) {
	rat, ok := new(big.Rat).SetString(strings.TrimSpace(amount))
	if !ok || rat.Sign() <= 0 {
		return 0, fmt.Errorf("invalid amount:%q", amount)
	}
	mist := rat.Mul(rat, new(big.Rat).SetInt64(MistPerSui))
	if !mist.IsInt() {
		return 0, fmt.Errorf("amount %q has more than %d decimals", amount, SuiDecimals)
	}
	if !mist.Num().IsUint64() {
		return 0, fmt.Errorf("amount %q out of range", amount)
	}
	return mist.Num().Uint64(), nil
}
