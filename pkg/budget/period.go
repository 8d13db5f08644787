package budget

import (
	"time"

	"github.com/expensetracker/expenses/internal/utils"
)

// Window returns the half-open window [start, end) of the budget that should be compared with
// spending at now.
//
// A budget with an end date covers its start date up to the end of the end date. Otherwise the
// window is the period-length window anchored on the start date that contains now, or the first
// window when now is before the start date.
func Window(budget Budget, now time.Time) (time.Time, time.Time) {
	start := budget.StartDate
	if budget.EndDate != nil {
		return start, utils.StartOfDay(*budget.EndDate).AddDate(0, 0, 1)
	}

	advance := periodStep(budget.Period)
	k := estimateSteps(budget.Period, start, now)
	for k > 0 && advance(start, k).After(now) {
		k--
	}
	for !advance(start, k+1).After(now) {
		k++
	}
	return advance(start, k), advance(start, k+1)
}

// periodStep returns a function moving t forward by n periods. Months are always added to the
// anchor so that a budget starting on the 31st returns to the 31st whenever the month allows.
func periodStep(period Period) func(t time.Time, n int) time.Time {
	switch period {
	case PeriodWeekly:
		return func(t time.Time, n int) time.Time { return t.AddDate(0, 0, 7*n) }
	case PeriodYearly:
		return func(t time.Time, n int) time.Time { return utils.AddMonthsClamped(t, 12*n) }
	default:
		return func(t time.Time, n int) time.Time { return utils.AddMonthsClamped(t, n) }
	}
}

func estimateSteps(period Period, start, now time.Time) int {
	if !now.After(start) {
		return 0
	}
	switch period {
	case PeriodWeekly:
		return int(now.Sub(start).Hours() / (24 * 7))
	case PeriodYearly:
		return now.Year() - start.Year()
	default:
		return (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	}
}
