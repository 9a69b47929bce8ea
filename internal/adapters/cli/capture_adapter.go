package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/mqmon/internal/ports/primary"
)

// CaptureAdapter translates CLI operations to the capture and ground-truth services.
type CaptureAdapter struct {
	captures    primary.CaptureService
	groundTruth primary.GroundTruthService
	out         io.Writer
}

// NewCaptureAdapter creates a new CaptureAdapter with the given services.
func NewCaptureAdapter(captures primary.CaptureService, groundTruth primary.GroundTruthService, out io.Writer) *CaptureAdapter {
	return &CaptureAdapter{
		captures:    captures,
		groundTruth: groundTruth,
		out:         out,
	}
}

// List prints the capture files of one hour partition.
func (a *CaptureAdapter) List(ctx context.Context, req primary.ListCapturesRequest) error {
	resp, err := a.captures.ListCaptures(ctx, req)
	if err != nil {
		return err
	}

	if len(resp.Files) == 0 {
		fmt.Fprintf(a.out, "No capture files under %s for %s\n", resp.BaseURI, req.Partition)
		return nil
	}

	fmt.Fprintf(a.out, "Found %d capture file(s) under %s:\n\n", len(resp.Files), resp.BaseURI)
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	if req.CountRecords {
		fmt.Fprintln(w, "RECORDS\tFILE")
		fmt.Fprintln(w, "-------\t----")
		total := 0
		for _, f := range resp.Files {
			fmt.Fprintf(w, "%d\t%s\n", f.Records, f.URI)
			total += f.Records
		}
		fmt.Fprintf(w, "%d\t(total)\n", total)
	} else {
		for _, f := range resp.Files {
			fmt.Fprintln(w, f.URI)
		}
	}
	return w.Flush()
}

// GenerateGroundTruth builds and uploads one ground-truth batch.
func (a *CaptureAdapter) GenerateGroundTruth(ctx context.Context, req primary.GenerateGroundTruthRequest) error {
	resp, err := a.groundTruth.Generate(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Read %d record(s) from %d capture file(s)", resp.Records, resp.CaptureFiles)
	if resp.Skipped > 0 {
		fmt.Fprintf(a.out, ", skipped %d", resp.Skipped)
	}
	fmt.Fprintln(a.out)

	switch {
	case resp.Uploaded:
		fmt.Fprintf(a.out, "✓ Uploaded ground truth to %s\n", resp.URI)
	case resp.Records == 0:
		fmt.Fprintln(a.out, "Nothing to upload")
	default:
		fmt.Fprintf(a.out, "Dry run: would upload to %s\n", resp.URI)
	}
	return nil
}
