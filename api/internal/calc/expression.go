// Package calc turns "amount-percentage" expressions into priced values.
package calc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/qx/ledger_robot/api/internal/types"
	"github.com/shopspring/decimal"
)

const separator = "-"

// Bounds keep every product, quotient and running sum of the ledger finite.
const (
	MaxAmount     = 1e12
	MaxPercentage = 100
	MinCourse     = 1e-6
	MaxCourse     = 1e12
)

type Result struct {
	Value      float64
	Percentage float64
	NetValue   float64
}

// Parse evaluates "<amount>-<percentage>". NetValue is already rounded to
// two places and is the value that gets persisted.
func Parse(expr string) (Result, error) {
	parts := strings.Split(strings.TrimSpace(expr), separator)
	if len(parts) != 2 {
		return Result{}, fmt.Errorf("%w: %q", types.ErrParse, expr)
	}

	value, err := parseNumber(parts[0])
	if err != nil {
		return Result{}, fmt.Errorf("%w: amount %q", types.ErrParse, parts[0])
	}
	if !(value > 0) || value > MaxAmount {
		return Result{}, fmt.Errorf("%w: amount %q out of range", types.ErrParse, parts[0])
	}
	percentage, err := parseNumber(parts[1])
	if err != nil {
		return Result{}, fmt.Errorf("%w: percentage %q", types.ErrParse, parts[1])
	}
	if percentage < 0 || percentage > MaxPercentage {
		return Result{}, fmt.Errorf("%w: percentage %q out of range", types.ErrParse, parts[1])
	}

	net := Net(value, percentage)
	if !finite(net) {
		return Result{}, fmt.Errorf("%w: %q", types.ErrParse, expr)
	}

	return Result{
		Value:      value,
		Percentage: percentage,
		NetValue:   net,
	}, nil
}

// ParseCourse reads a conversion rate in [MinCourse, MaxCourse].
func ParseCourse(s string) (float64, error) {
	course, err := parseNumber(s)
	if err != nil || course < MinCourse || course > MaxCourse {
		return 0, fmt.Errorf("%w: course %q", types.ErrParse, s)
	}
	return course, nil
}

// Net is round2(amount - amount*percentage/100).
func Net(amount, percentage float64) float64 {
	discount := amount * percentage / 100
	return Round2(amount - discount)
}

// Round2 rounds half away from zero to two decimal places. NaN and ±Inf
// are returned unchanged.
func Round2(v float64) float64 {
	if !finite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// Accumulate adds term to acc and rounds the partial sum, so drift
// accumulates the same way on every aggregate.
func Accumulate(acc, term float64) float64 {
	return Round2(acc + term)
}

func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if !finite(v) {
		return 0, strconv.ErrRange
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
