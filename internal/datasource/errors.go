package datasource

import (
	"errors"
	"fmt"
	"strings"

	"project-tracker/internal/models"
	"project-tracker/internal/validation"
)

// ErrWarningsNotAcknowledged is returned when a save only has advisory issues
// and the caller did not acknowledge them.
var ErrWarningsNotAcknowledged = errors.New("warnings must be acknowledged")

// ErrImportFailed is returned when no row of an import could be converted.
var ErrImportFailed = errors.New("import failed")

// ValidationError rejects a save. It unwraps to models.ErrNotValid when there
// are blocking issues and to ErrWarningsNotAcknowledged otherwise.
type ValidationError struct {
	Issues validation.Issues
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task rejected: %s", strings.Join(e.Issues.Messages(), "; "))
}

func (e *ValidationError) Unwrap() error {
	if e.Issues.HasBlocking() {
		return models.ErrNotValid
	}
	return ErrWarningsNotAcknowledged
}

// ImportError reports an import where every row failed conversion.
type ImportError struct {
	File   string
	Errors []string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: no rows of %s could be converted (%d errors)", ErrImportFailed, e.File, len(e.Errors))
}

func (e *ImportError) Unwrap() error { return ErrImportFailed }
