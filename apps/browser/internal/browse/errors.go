package browse

import "fmt"

// InvalidArgumentError is returned when a required path or file name is blank.
type InvalidArgumentError struct {
	Argument string
}

// Error implements the error interface.
func (e InvalidArgumentError) Error() string {
	return fmt.Sprintf("argument %q must not be empty", e.Argument)
}

// RepositoryNotFoundError is returned when the remote cannot resolve the
// configured project/repository pair.
type RepositoryNotFoundError struct {
	Project    string
	Repository string
}

// Error implements the error interface.
func (e RepositoryNotFoundError) Error() string {
	return fmt.Sprintf("repository %q not found in project %q", e.Repository, e.Project)
}

// MalformedContentError is returned when a file was read but could not be
// parsed as a structured document.
type MalformedContentError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e MalformedContentError) Error() string {
	return fmt.Sprintf("malformed content in %q: %v", e.Path, e.Err)
}

// Unwrap returns the parser error.
func (e MalformedContentError) Unwrap() error {
	return e.Err
}
