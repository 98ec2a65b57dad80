package extract

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/receipt-ledger/constants"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// ImageSource gives the extraction client access to stored receipt images.
type ImageSource interface {
	// Read returns the raw bytes behind a storage locator.
	Read(ctx context.Context, locator string) ([]byte, error)
	// DisplayURL reports where the image can be viewed; false when it is not reachable.
	DisplayURL(img entity.Image) (string, bool)
}

// Failure is a classified extraction error.
type Failure struct {
	Kind    constants.FailureKind
	Message string
	Cause   error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func fail(kind constants.FailureKind, msg string, cause error) *Failure {
	return &Failure{Kind: kind, Message: msg, Cause: cause}
}
