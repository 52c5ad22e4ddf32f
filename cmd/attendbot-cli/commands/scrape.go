package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"attendbot/internal/attendance"
	"attendbot/internal/messaging"
	"attendbot/internal/portal"
)

var (
	scrapeUsername *string
	scrapePassword *string
	scrapeSendTo   *string
	scrapeJSON     *bool
)

func init() {
	scrapeUsername = scrapeCmd.Flags().String("username", "", "Portal username.")
	scrapePassword = scrapeCmd.Flags().String("password", "", "Portal password.")
	scrapeSendTo = scrapeCmd.Flags().String("send-to", "", "WhatsApp number to deliver the report to.")
	scrapeJSON = scrapeCmd.Flags().Bool("json", false, "Print the report as JSON instead of a table.")
	_ = scrapeCmd.MarkFlagRequired("username")
	_ = scrapeCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --username <user> --password <pass> [--send-to <number>] [--json]",
	Short: "Logs into the portal, prints today's attendance and optionally sends it over WhatsApp.",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen := portal.NewChrome(portal.Options{
			ExecPath:  cfg.ChromeBin,
			RemoteURL: cfg.ChromeRemoteURL,
			Timeout:   cfg.ScrapeTimeout,
		})

		log.Info().Str("username", *scrapeUsername).Msg("scraping attendance")
		started := time.Now()
		report, err := gen.Generate(cmd.Context(), attendance.Credentials{
			Username: *scrapeUsername,
			Password: *scrapePassword,
		})
		if err != nil {
			return fmt.Errorf("scrape failed: %w", err)
		}
		log.Info().Dur("took", time.Since(started)).Int("subjects", len(report.Subjects)).Msg("scrape finished")

		out := cmd.OutOrStdout()
		if *scrapeJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
		} else {
			renderReport(out, *report)
		}

		if *scrapeSendTo == "" {
			return nil
		}
		optIn := attendance.OptInInstruction(cfg.TwilioJoinCode, cfg.TwilioFrom)
		res := messaging.New(cfg).Send(cmd.Context(), *scrapeSendTo, attendance.Format(*report)+optIn)
		if !res.Success {
			return fmt.Errorf("whatsapp delivery failed: %s", res.Error)
		}
		fmt.Fprintf(out, "report sent to %s\n", *scrapeSendTo)
		return nil
	},
}

func renderReport(w io.Writer, r attendance.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Subject", "Time", "Faculty", "Status"})
	for _, s := range r.Subjects {
		t.AppendRow(table.Row{s.Name, s.TimeSlot, s.Faculty, s.Status.Label()})
	}
	total := r.TotalPercentage
	if !r.HasTotal() {
		total = "N/A"
	}
	t.AppendFooter(table.Row{"Total", "", "", total})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
