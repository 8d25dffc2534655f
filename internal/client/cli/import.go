package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/weddingkeeper/internal/client/api"
	"github.com/dmitrijs2005/weddingkeeper/internal/client/scrape"
	"github.com/dmitrijs2005/weddingkeeper/internal/filex"
)

func newImportCmd(run appRunner) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "import <wedding-website-url>",
		Short: "Import wedding details from an existing wedding website",
		Long: `Import scans an existing wedding website (Zola, The Knot, Minted and others)
and extracts the couple, date, venue and schedule. The scan runs on the server;
progress is shown until it finishes. Press Ctrl+C to stop waiting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(a *App) error { return a.Import(cmd.Context(), args[0], out) })
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the full extracted data as JSON to this file")
	return cmd
}

// Import runs one website import and prints the preview. When outPath is set
// the full data is written there.
func (a *App) Import(ctx context.Context, websiteURL, outPath string) error {
	p := a.newPoller()
	r := &progressRenderer{out: a.out, theme: a.theme, tty: a.tty}
	unsubscribe := p.Subscribe(r.render)
	defer unsubscribe()

	stop := context.AfterFunc(ctx, p.Cancel)
	defer stop()

	fmt.Fprintf(a.out, "Scanning %s\n", a.theme.accent(websiteURL))

	if _, err := p.Start(ctx, websiteURL); err != nil {
		r.finish()
		if errors.Is(err, scrape.ErrSubmission) {
			if detail := api.Detail(err); detail != "" {
				return fmt.Errorf("%w: %s", scrape.ErrSubmission, detail)
			}
		}
		return err
	}

	res, err := p.Wait(context.WithoutCancel(ctx))
	r.finish()
	if err != nil {
		switch {
		case errors.Is(err, scrape.ErrConnectionLost):
			fmt.Fprintln(a.out, a.theme.hint("Job "+p.Snapshot().JobID+" may still be running on the server."))
		case errors.Is(err, scrape.ErrScrapeFailed), errors.Is(err, scrape.ErrMalformedResult):
			fmt.Fprintln(a.out, a.theme.hint("Try again, or enter the wedding details manually."))
		}
		return err
	}

	fmt.Fprintln(a.out, a.theme.success("✓ Import complete"))
	if res.Platform != "" {
		fmt.Fprintf(a.out, "Platform: %s\n", res.Platform)
	}
	fmt.Fprintln(a.out, prettyJSON(res.Preview))

	if outPath != "" {
		if err := writeJSON(outPath, res.Data); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Full data written to %s\n", outPath)
	}
	return nil
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func writeJSON(path string, raw json.RawMessage) error {
	if err := filex.EnsureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(prettyJSON(raw)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
