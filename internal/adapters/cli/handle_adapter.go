package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/example/mqmon/internal/ports/primary"
)

// HandleAdapter translates CLI operations to HandleService calls.
type HandleAdapter struct {
	service primary.HandleService
	out     io.Writer
}

// NewHandleAdapter creates a new HandleAdapter with the given service.
func NewHandleAdapter(service primary.HandleService, out io.Writer) *HandleAdapter {
	return &HandleAdapter{
		service: service,
		out:     out,
	}
}

// List prints recorded handles, newest first.
func (a *HandleAdapter) List(ctx context.Context, filters primary.HandleFilters) error {
	handles, err := a.service.ListHandles(ctx, filters)
	if err != nil {
		return fmt.Errorf("failed to list handles: %w", err)
	}

	if len(handles) == 0 {
		fmt.Fprintln(a.out, "No handles recorded")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROLE\tNAME\tSTATUS\tRECORDED\tSOURCE")
	fmt.Fprintln(w, "--\t----\t----\t------\t--------\t------")
	for _, h := range handles {
		status := color.New(color.FgGreen).Sprint("active")
		if h.SupersededAt != nil {
			status = color.New(color.FgYellow).Sprint("superseded")
		}
		name := h.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", h.ID, h.Role, name, status, h.CreatedAt.Local().Format(time.DateTime), h.Source)
	}
	return w.Flush()
}

// Record appends the handles of a deploy hand-off to the history.
func (a *HandleAdapter) Record(ctx context.Context, deployPath string) error {
	n, err := a.service.RecordDeploy(ctx, deployPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "✓ Recorded %d handle(s) from %s\n", n, deployPath)
	return nil
}
