package core

// Overview holds income and outgoing totals for a user, optionally for a
// single month.
type Overview struct {
	Income   Money
	Outgoing Money
}

// MonthSummary is one row of the month list. Date is "YYYY-MM" in the
// ledger's location.
type MonthSummary struct {
	Date     string
	Income   Money
	Outgoing Money
}
