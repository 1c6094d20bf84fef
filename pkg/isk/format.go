package isk

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var units = []string{"", "K", "M", "B", "T"}

// Human renders an ISK amount in short magnitude form, e.g. 1.25M or 42.00B.
func Human(d decimal.Decimal) string {
	f, _ := d.Float64()
	return HumanFloat(f)
}

func HumanFloat(number float64) string {
	abs := math.Abs(number)
	if abs < 1000 {
		return fmt.Sprintf("%.2f", number)
	}
	magnitude := int(math.Floor(math.Log(abs) / math.Log(1000)))
	if magnitude >= len(units) {
		magnitude = len(units) - 1
	}
	return fmt.Sprintf("%.2f%s", number/math.Pow(1000, float64(magnitude)), units[magnitude])
}
