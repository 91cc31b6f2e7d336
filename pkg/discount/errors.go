package discount

import "errors"

var (
	ErrMissingProduct    = errors.New("product id is required")
	ErrInvalidDate       = errors.New("invalid holiday date")
	ErrInvalidWindow     = errors.New("discount window offsets must be between 0 and 365 days")
	ErrInvalidPercentage = errors.New("discount percentage must be between 1 and 100")
	ErrEmptyDiscount     = errors.New("either a coupon code or a discount percentage is required")
	ErrRecordNotFound    = errors.New("holiday discount not found")
	ErrDuplicateRecord   = errors.New("holiday discount already exists for product and date")
)
