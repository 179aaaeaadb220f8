package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/Alias1177/dexsentinel/internal/model"
)

// Notifier delivers a rendered report to a chat sink. Delivery is attempted
// once; a failed delivery is reported, never retried.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Multi sends the same text to every sink and joins their errors.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, text string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d sinks: %w", model.ErrNotifyFailed, len(errs), len(m), errors.Join(errs...))
}
