package object

import "github.com/scaffold-io/scaffold/errors"

func typeErrorf(format string, args ...any) error {
	return errors.Errorf(errors.TypeError, format, args...)
}

func attrErrorf(kind errors.Kind, format string, args ...any) error {
	return errors.Errorf(kind, format, args...)
}
