package types

import (
	"fmt"
	"strconv"
	"time"
)

// LineItem is one rendered statistics row.
type LineItem struct {
	Sum        float64
	Percentage float64
	CalcSum    float64
}

// String renders the row as "sum-percentage = calcSum".
func (i LineItem) String() string {
	return fmt.Sprintf("%s-%s = %s", FormatNumber(i.Sum), FormatNumber(i.Percentage), FormatNumber(i.CalcSum))
}

// Aggregate is the per-day ledger summary of a group.
type Aggregate struct {
	GroupID   int64
	Date      time.Time
	FullSum   float64
	ToPaySum  float64
	PaidSum   float64
	LineItems []LineItem
}

// FormatNumber prints v in its shortest decimal form: 90, 12.5, 0.33.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DayKey identifies a calendar day of a group.
type DayKey struct {
	GroupID int64
	Date    time.Time
}

func (k DayKey) String() string {
	return fmt.Sprintf("%d:%s", k.GroupID, k.Date.Format(time.DateOnly))
}
