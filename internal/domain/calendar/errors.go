package calendar

import "errors"

// ErrUnknownLocale is returned by New for locales without holiday rules.
var ErrUnknownLocale = errors.New("unknown holiday locale")
