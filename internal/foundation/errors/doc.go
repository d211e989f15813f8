// Package errors provides the classified error primitives used across gsit.
//
// Every error that crosses a package boundary is a ClassifiedError carrying a
// category, a severity and optional structured context. Expected rejections
// (a vetoed pre-event, an unusable seat location) are modelled as sentinel
// ClassifiedErrors so callers can match them with errors.Is.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryConfig, "invalid seat offset").
//		WithContext("material", "OAK_STAIRS").
//		WithCause(parseErr).
//		Build()
package errors
