package calendar

import "errors"

var (
	ErrInvalidYear     = errors.New("calendar: year out of supported range")
	ErrInvalidCountry  = errors.New("calendar: country must be an ISO 3166-1 alpha-2 code")
	ErrUnknownCountry  = errors.New("calendar: country not supported by holiday source")
	ErrUpstream        = errors.New("calendar: holiday source request failed")
	ErrInvalidResponse = errors.New("calendar: invalid holiday source response")
	ErrInvalidSchedule = errors.New("calendar: invalid prefetch schedule")
)
