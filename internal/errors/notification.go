package errors

import "errors"

var ErrCorruptRecord = errors.New("corrupt correlation record")
var ErrInvalidNotification = errors.New("invalid notification")
var ErrOrderNotFound = errors.New("order not found")
var ErrLockTimeout = errors.New("timed out waiting for order lock")
