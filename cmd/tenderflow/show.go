package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openprocure/tenderflow/internal/cli"
	"github.com/openprocure/tenderflow/internal/detail"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/service"
)

func showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <tender-hash>",
		Short: "Show the full record of one tender",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	cmd.Flags().Bool("document", false, "also fetch the AI-generated document body")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	loader := detail.NewLoader(a.client)
	record, err := loader.FetchTenderDetail(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Println(cli.RenderBox(record.Title, renderDetail(record)))

	if withDoc, _ := cmd.Flags().GetBool("document"); withDoc {
		docs := detail.NewDocumentLoader(a.client, service.RealClock{})
		body, docErr := docs.Load(ctx, record.Hash)
		if docErr != nil {
			return docErr
		}
		fmt.Println()
		fmt.Println(cli.RenderBox("Document", body))
	}

	return nil
}

func renderDetail(d *model.TenderDetail) string {
	var b strings.Builder

	row := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(cli.SubtleStyle.Render(label+": ") + value + "\n")
	}

	row("ID", d.TenderID)
	row("Buyer", d.Buyer)
	row("Organization", d.Organization)
	row("Location", d.Location)
	row("Place of performance", d.PlaceOfPerformance)
	row("Contract type", d.ContractType)
	row("Budget", formatBudget(d.Budget))
	row("Submitted", d.SubmissionDate.Format("2006-01-02"))
	row("Contract terms", d.ContractTerms)

	if len(d.Lots) > 0 {
		b.WriteString("\n" + cli.FormatTitle(fmt.Sprintf("Lots (%d)", len(d.Lots))) + "\n")
		for _, lot := range d.Lots {
			b.WriteString(fmt.Sprintf("  %s %s (%s)\n", lot.Number, lot.Title, formatBudget(lot.Budget)))
		}
	}

	if len(d.Documents) > 0 {
		b.WriteString("\n" + cli.FormatTitle(fmt.Sprintf("Documents (%d)", len(d.Documents))) + "\n")
		for _, doc := range d.Documents {
			b.WriteString("  " + doc.Title + "\n")
		}
	}

	if d.AISummary != "" {
		b.WriteString("\n" + cli.FormatTitle("Summary") + "\n" + d.AISummary + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
