// Package discount stores per-product discount windows around public holidays.
//
// A record covers the days from HolidayDate-StartBefore to
// HolidayDate+EndAfter and carries a percentage, a coupon code or both.
// Submissions are create-or-override on (ProductID, HolidayDate); a
// submission with neither a coupon nor a percentage is dropped silently.
package discount
