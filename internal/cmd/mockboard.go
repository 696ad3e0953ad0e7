package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/chessbook/internal/board"
	"github.com/Iron-Ham/chessbook/internal/errors"
)

var mockBoardCmd = &cobra.Command{
	Use:   "mock-board",
	Short: "Serve a fake sensor board for development",
	Long: `Serve the board HTTP API backed by an in-memory board. Placements pushed
without force are applied at once, as if someone set up the pieces. Use
PUT /api/mock/connected/off to simulate a board that is switched off.

Point board.base_url at the printed address to use it.`,
	Args: cobra.NoArgs,
	RunE: runMockBoard,
}

func init() {
	rootCmd.AddCommand(mockBoardCmd)
	mockBoardCmd.Flags().String("addr", "127.0.0.1:8675", "address to listen on")
}

func runMockBoard(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	d, err := loadDeps(false)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mock := board.NewMock(d.logger)
	mock.SetAutoApply(true)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "mock board listening on http://%s\n", ln.Addr())
	return serveUntilDone(ctx, ln, mock.Handler())
}

// serveUntilDone serves h on ln until ctx is cancelled, then shuts down.
func serveUntilDone(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
