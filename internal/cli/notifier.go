package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/openprocure/tenderflow/internal/service"
)

// Notifier writes styled notifications to the terminal. It satisfies
// service.Notifier for the controllers that announce toggle and task
// outcomes.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier creates a notifier writing to stdout.
func NewNotifier() *Notifier {
	return &Notifier{out: os.Stdout}
}

// NewNotifierTo creates a notifier writing to the given writer.
func NewNotifierTo(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// Success prints a confirmation message.
func (n *Notifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, FormatSuccess(msg))
}

// Error prints a failure message.
func (n *Notifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.out, FormatError(msg))
}

var _ service.Notifier = (*Notifier)(nil)
