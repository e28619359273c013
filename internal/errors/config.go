package errors

import "fmt"

// NewConfigurationError reports a startup misconfiguration. These are fatal
// and never retried.
func NewConfigurationError(component, message string) *BaseError {
	return Newf(ConfigurationErrorCode, "%s: %s", component, message)
}

// NewContractError reports a host capability contract that could not be
// resolved or satisfied.
func NewContractError(contract, message string) *BaseError {
	return Newf(ContractErrorCode, "contract %s: %s", contract, message)
}

// NewSyntaxError reports a malformed annotation
func NewSyntaxError(message string, loc SourceLocation) *BaseError {
	return New(SyntaxErrorCode, message).WithLocation(loc)
}

// NewValidationError reports an annotation that parsed but is semantically wrong
func NewValidationError(field, expected, actual string, loc SourceLocation) *BaseError {
	return Newf(ValidationErrorCode, "invalid %s: expected %s, got %s", field, expected, actual).
		WithLocation(loc)
}

// WrapFileSystemError wraps file system related errors
func WrapFileSystemError(operation, path string, cause error) *BaseError {
	return Wrap(FileSystemErrorCode, fmt.Sprintf("failed to %s file '%s'", operation, path), cause)
}

// WrapGenerateError wraps an error raised while producing generated code
func WrapGenerateError(item string, cause error) *BaseError {
	return Wrap(GenerationErrorCode, fmt.Sprintf("failed to generate %s", item), cause)
}
