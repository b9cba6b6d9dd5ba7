// listen.go implements "sentiscribe listen", the headless console loop.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwulff/sentiscribe/internal/config"
	"github.com/jwulff/sentiscribe/internal/export"
	"github.com/jwulff/sentiscribe/internal/ledger"
	"github.com/jwulff/sentiscribe/internal/listener"
	"github.com/jwulff/sentiscribe/internal/ui"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the listening loop in the terminal without the TUI",
	Long: `Run the capture, classify and feedback loop, printing each result.
The loop ends on the stop phrase or Ctrl-C. With the typed provider,
utterances are read from stdin one per line and the loop also ends once
stdin is exhausted.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

var (
	listenCSV    string
	listenText   string
	listenSQLite string
	listenTrends bool
)

func init() {
	listenCmd.Flags().StringVar(&listenCSV, "csv", "", "Write the session as CSV to this path when done")
	listenCmd.Flags().StringVar(&listenText, "text", "", "Write the transcript to this path when done")
	listenCmd.Flags().StringVar(&listenSQLite, "sqlite", "", "Append the session to this SQLite file when done")
	listenCmd.Flags().BoolVar(&listenTrends, "trends", false, "Print the sentiment trend chart when done")
}

func runListen(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	return listen(ctx, cfg, logger, cmd.InOrStdin(), out)
}

// listen runs one headless session reading typed input from in, printing to
// out, and writing any requested exports afterwards.
func listen(ctx context.Context, cfg *config.Config, logger *zap.Logger, in io.Reader, out io.Writer) error {
	var (
		transcript export.Transcript
		inputDone  atomic.Bool
		loop       *listener.Loop
	)

	onEvent := func(ev listener.Event) {
		switch ev.Kind {
		case listener.EventRecorded:
			lines := export.RecordLines(ev.Record)
			transcript.Add(lines...)
			for _, l := range lines {
				fmt.Fprintln(out, l)
			}
		case listener.EventClassifyFailed:
			fmt.Fprintf(out, "Could not classify %q: %v\n", ev.Text, ev.Err)
		case listener.EventNoText:
			// Typed input is exhausted and nothing is queued.
			if inputDone.Load() {
				loop.Stop()
			}
		case listener.EventStopped:
			transcript.AddStop()
			fmt.Fprintln(out, export.StopLine)
		}
	}

	sess, err := newSession(cfg, logger, onEvent)
	if err != nil {
		return err
	}
	loop = sess.loop

	fmt.Fprintf(out, "Listening... say %q to finish.\n", cfg.Listener.StopPhrase)
	if err := loop.Start(ctx); err != nil {
		return err
	}

	if sess.typed != nil {
		go func() {
			if err := sess.typed.FeedLines(ctx, in); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("reading stdin", zap.Error(err))
			}
			inputDone.Store(true)
		}()
	}

	loop.Wait()
	if err := sess.Close(); err != nil {
		logger.Warn("session close", zap.Error(err))
	}

	if listenTrends {
		fmt.Fprintln(out, ui.RenderTrends(sess.ledger.TrendCounts(), 40))
	}
	return writeExports(out, sess.ledger, transcript.String())
}

func writeExports(out io.Writer, l *ledger.Ledger, transcript string) error {
	var errs []error
	report := func(path string, err error) {
		switch {
		case errors.Is(err, export.ErrNoData):
			fmt.Fprintln(out, "No data to export.")
		case err != nil:
			errs = append(errs, err)
		default:
			fmt.Fprintf(out, "Export Successful: %s\n", path)
		}
	}

	if listenCSV != "" {
		path := export.WithExtension(listenCSV, export.CSVExt)
		report(path, export.SaveCSV(path, l))
	}
	if listenText != "" {
		path := export.WithExtension(listenText, export.TextExt)
		report(path, export.SaveText(path, transcript))
	}
	if listenSQLite != "" {
		path := export.WithExtension(listenSQLite, export.SQLiteExt)
		_, err := export.SaveSQLite(path, l)
		report(path, err)
	}
	return errors.Join(errs...)
}
