package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"ssp-admin/internal/core/admin"
	"ssp-admin/internal/infra/logx"
	"ssp-admin/internal/ssp"
)

func newTemplatesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Work with message templates without the TUI",
	}
	cmd.AddCommand(newTemplatesListCmd(opts), newTemplatesPreviewCmd(opts), newTemplatesExportCmd(opts))
	return cmd
}

func newTemplatesListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all message templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, client, err := newClient(opts)
			if err != nil {
				return err
			}
			ctx, rc := withRetryReport(cmd.Context())
			ts, err := client.ListMessageTemplates(ctx)
			reportRetries("templates list", rc)
			if err != nil {
				return fmt.Errorf("listing templates: %w", err)
			}
			return renderTemplateTable(cmd.OutOrStdout(), ts)
		},
	}
}

func renderTemplateTable(out io.Writer, ts []ssp.MessageTemplate) error {
	if len(ts) == 0 {
		_, err := fmt.Fprintln(out, "No message templates.")
		return err
	}
	const tabPadding = 2
	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(w, "ID\tName\tSubject\tModified")
	fmt.Fprintln(w, "--\t----\t-------\t--------")
	for _, t := range ts {
		modified := "-"
		if t.ModifiedDate > 0 {
			modified = time.UnixMilli(t.ModifiedDate).UTC().Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.Subject, modified)
	}
	return w.Flush()
}

func newTemplatesPreviewCmd(opts *rootOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "preview <id>",
		Short: "Fetch the preview of one message template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid template id %q", args[0])
			}
			_, client, err := newClient(opts)
			if err != nil {
				return err
			}
			ctx, rc := withRetryReport(ssp.WithRequestID(cmd.Context(), ""))
			body, err := client.PreviewMessageTemplate(ctx, id)
			reportRetries("templates preview", rc)
			if err != nil {
				return fmt.Errorf("%s: %w", admin.MsgPreviewFailed, err)
			}
			out := cmd.OutOrStdout()
			if raw {
				_, err := out.Write(body)
				return err
			}
			return renderPreview(out, id, admin.DecodeDetail(body))
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the response body undecoded")
	return cmd
}

func renderPreview(out io.Writer, id int, d admin.OptionalDetail) error {
	if !d.Present {
		_, err := fmt.Fprintf(out, "No preview data returned for template %d.\n", id)
		return err
	}
	t := d.Template
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s\n", t.ID, t.Name)
	if t.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", t.Subject)
	}
	b.WriteString("\n" + admin.BodyText(t.Body) + "\n")
	_, err := io.WriteString(out, b.String())
	return err
}

// previewWorkers bounds concurrent preview fetches during export.
const previewWorkers = 4

func newTemplatesExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format      string
		withPreview bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all message templates as JSON or YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, err := encoderFor(format)
			if err != nil {
				return err
			}
			_, client, err := newClient(opts)
			if err != nil {
				return err
			}
			ctx, rc := withRetryReport(cmd.Context())
			ts, err := client.ListMessageTemplates(ctx)
			reportRetries("templates export", rc)
			if err != nil {
				return fmt.Errorf("listing templates: %w", err)
			}
			store := admin.NewStore()
			store.Load(ts)
			data, err := store.TemplateData()
			if err != nil {
				return fmt.Errorf("flatten templates: %w", err)
			}
			if withPreview {
				if err := attachPreviews(ctx, client, ts, data); err != nil {
					return err
				}
			}
			return enc(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	cmd.Flags().BoolVar(&withPreview, "with-preview", false, "add each template's rendered preview text")
	return cmd
}

// attachPreviews fetches the preview of every template and stores its plain
// text under "preview". data[i] belongs to ts[i].
func attachPreviews(ctx context.Context, fetcher admin.DetailFetcher, ts []ssp.MessageTemplate, data []map[string]any) error {
	texts := make([]string, len(ts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(previewWorkers)
	for i, t := range ts {
		i, t := i, t
		g.Go(func() error {
			body, err := fetcher.PreviewMessageTemplate(ssp.WithRequestID(gctx, ""), t.ID)
			if err != nil {
				return fmt.Errorf("preview template %d: %w", t.ID, err)
			}
			if d := admin.DecodeDetail(body); d.Present {
				texts[i] = admin.BodyText(d.Template.Body)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range data {
		data[i]["preview"] = texts[i]
	}
	return nil
}

func withRetryReport(ctx context.Context) (context.Context, *ssp.RetryCounters) {
	rc := &ssp.RetryCounters{}
	return ssp.WithRetryCounters(ctx, rc), rc
}

func reportRetries(op string, rc *ssp.RetryCounters) {
	if n := rc.Total.Load(); n > 0 {
		logx.Warnf("%s needed %d retries (429: %d, 5xx: %d, network: %d)",
			op, n, rc.Status429.Load(), rc.Status5xx.Load(), rc.Net.Load())
	}
}

type encodeFunc func(io.Writer, []map[string]any) error

func encoderFor(format string) (encodeFunc, error) {
	switch strings.ToLower(format) {
	case "json":
		return func(w io.Writer, data []map[string]any) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		}, nil
	case "yaml", "yml":
		return func(w io.Writer, data []map[string]any) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(data); err != nil {
				return err
			}
			return enc.Close()
		}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want json or yaml)", format)
	}
}
