package attendance

import (
	"github.com/cmlabs-hris/site-attendance-go/internal/domain/siteattendance"
	"github.com/shopspring/decimal"
)

var (
	excellentThreshold = decimal.NewFromInt(90)
	goodThreshold      = decimal.NewFromInt(75)
	hundred            = decimal.NewFromInt(100)
	minutesPerHour     = decimal.NewFromInt(60)
)

// Utilization returns actual/expected presence as a percentage. It is zero when
// no hours are expected.
func Utilization(totalMinutes, expectedHours float64) decimal.Decimal {
	if expectedHours <= 0 {
		return decimal.Zero
	}
	expectedMinutes := decimal.NewFromFloat(expectedHours).Mul(minutesPerHour)
	return decimal.NewFromFloat(totalMinutes).Mul(hundred).Div(expectedMinutes)
}

// Classify derives the summary status. Band lower bounds are inclusive and an
// open session always wins over the numeric bands.
func Classify(totalMinutes, expectedHours float64, hasEvents, openSession bool) siteattendance.SummaryStatus {
	if !hasEvents {
		return siteattendance.StatusAbsent
	}
	if openSession {
		return siteattendance.StatusIncomplete
	}
	if totalMinutes <= 0 {
		return siteattendance.StatusAbsent
	}
	if expectedHours <= 0 {
		return siteattendance.StatusExcellent
	}

	utilization := Utilization(totalMinutes, expectedHours)
	switch {
	case utilization.GreaterThanOrEqual(excellentThreshold):
		return siteattendance.StatusExcellent
	case utilization.GreaterThanOrEqual(goodThreshold):
		return siteattendance.StatusGood
	default:
		return siteattendance.StatusBelowTarget
	}
}
