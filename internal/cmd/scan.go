package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Iron-Ham/chessbook/internal/errors"
	"github.com/Iron-Ham/chessbook/internal/services"
)

var scanCmd = &cobra.Command{
	Use:   "scan <file.pdf>",
	Short: "Detect the diagrams on every page of a book",
	Long: `Upload a book and run diagram detection on all of its pages, printing
how many diagrams each page holds. Pages are scanned concurrently.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntP("jobs", "j", 4, "pages to scan at once")
}

// detector is the part of services.Client a scan needs.
type detector interface {
	DetectDiagrams(ctx context.Context, pdfID string, page int) (services.Detection, error)
}

// pageScan is the outcome for one page.
type pageScan struct {
	Page      int
	Detection services.Detection
	Err       error
}

// scanPages detects diagrams on pages [0, pages) with at most jobs requests
// in flight. A failed page is recorded and the scan goes on; only
// cancellation stops it.
func scanPages(ctx context.Context, d detector, pdfID string, pages, jobs int) ([]pageScan, error) {
	results := make([]pageScan, pages)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, jobs))

	for page := range pages {
		g.Go(func() error {
			det, err := d.DetectDiagrams(ctx, pdfID, page)
			if errors.IsCanceled(err) {
				return err
			}
			results[page] = pageScan{Page: page, Detection: det, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func writeScan(w io.Writer, results []pageScan) (total, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(w, "page %d: %s\n", r.Page+1, errors.StatusText(r.Err))
			continue
		}
		n := len(r.Detection.Diagrams)
		if n == 0 {
			continue
		}
		total += n
		fmt.Fprintf(w, "page %d: %d diagrams\n", r.Page+1, n)
	}
	return total, failed
}

func runScan(cmd *cobra.Command, args []string) error {
	jobs, _ := cmd.Flags().GetInt("jobs")

	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	upload, err := d.services.UploadPDF(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to upload %s: %s", args[0], errors.StatusText(err))
	}
	d.logger.Info("scanning book", "pdf", upload.PdfID, "pages", upload.Pages, "jobs", jobs)

	results, err := scanPages(ctx, d.services, upload.PdfID, upload.Pages, jobs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	total, failed := writeScan(out, results)
	fmt.Fprintf(out, "%s: %d diagrams on %d pages", upload.PdfID, total, upload.Pages)
	if failed > 0 {
		fmt.Fprintf(out, " (%d pages failed)", failed)
	}
	fmt.Fprintln(out)
	return nil
}
