// Package errors provides the classified error primitives used across multipage.
//
// Key features:
//   - ErrorCategory: broad classification (config, discovery, filesystem, build, ...)
//   - ErrorSeverity: impact level (fatal, error, warning, info)
//   - RetryStrategy: whether repeating the operation can help
//   - ClassifiedError: structured error with category, severity, and context
//   - ErrorBuilder: fluent API for creating classified errors
//   - HTTP and CLI adapters for error presentation
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "move page output").
//		WithContext("page", name).
//		Build()
package errors
