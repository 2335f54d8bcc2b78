package view

import "cloud.google.com/go/civil"

// LastDays returns the range from n days before to up to and including to.
func LastDays(to civil.Date, n int) (civil.Date, civil.Date) {
	return to.AddDays(-n), to
}
