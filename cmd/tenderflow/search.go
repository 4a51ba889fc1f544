package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/openprocure/tenderflow/internal/cli"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/query"
)

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the tender feed",
		Long: `List tenders matching the given filters, newest submissions first.

Budget bounds, when both are given, must be at least 1000 apart. Dates
use YYYY-MM-DD.`,
		RunE: runSearch,
	}

	cmd.Flags().StringSlice("category", nil, "CPV category codes")
	cmd.Flags().StringSlice("state", nil, "regions / administrative states")
	cmd.Flags().StringSlice("status", nil, "tender statuses")
	cmd.Flags().String("from", "", "earliest submission date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "latest submission date (YYYY-MM-DD)")
	cmd.Flags().Float64("budget-min", 0, "minimum budget")
	cmd.Flags().Float64("budget-max", 0, "maximum budget")
	cmd.Flags().String("sort", string(model.SortBySubmissionDate), "sort field (submission_date, budget, title, organization_name)")
	cmd.Flags().String("direction", string(model.SortDesc), "sort direction (asc, desc)")
	cmd.Flags().Int("limit", model.DefaultLimit, "page size")
	cmd.Flags().Int("pages", 1, "number of pages to fetch")

	return cmd
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	params, err := paramsFromFlags(cmd)
	if err != nil {
		return err
	}

	c := query.New(a.client)
	if err := c.LoadTenders(ctx, params, true); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	pages, _ := cmd.Flags().GetInt("pages")
	for page := 1; page < pages && c.HasMore(); page++ {
		if err := c.LoadMore(ctx); err != nil {
			return fmt.Errorf("failed to load page %d: %w", page+1, err)
		}
	}

	renderTenderTable(c.Items())
	fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d of %d tenders", len(c.Items()), c.Total())))
	return nil
}

// paramsFromFlags builds a validated query parameter object from the
// search flags.
func paramsFromFlags(cmd *cobra.Command) (model.QueryParams, error) {
	params := model.DefaultQueryParams()

	params.Filters.Categories, _ = cmd.Flags().GetStringSlice("category")
	params.Filters.States, _ = cmd.Flags().GetStringSlice("state")
	params.Filters.Status, _ = cmd.Flags().GetStringSlice("status")

	if from, _ := cmd.Flags().GetString("from"); from != "" {
		parsed, err := time.Parse("2006-01-02", from)
		if err != nil {
			return params, fmt.Errorf("invalid --from date: %w", err)
		}
		params.Filters.DateFrom = &parsed
	}
	if to, _ := cmd.Flags().GetString("to"); to != "" {
		parsed, err := time.Parse("2006-01-02", to)
		if err != nil {
			return params, fmt.Errorf("invalid --to date: %w", err)
		}
		params.Filters.DateTo = &parsed
	}
	if cmd.Flags().Changed("budget-min") {
		minBudget, _ := cmd.Flags().GetFloat64("budget-min")
		params.Filters.BudgetMin = &minBudget
	}
	if cmd.Flags().Changed("budget-max") {
		maxBudget, _ := cmd.Flags().GetFloat64("budget-max")
		params.Filters.BudgetMax = &maxBudget
	}

	sortField, _ := cmd.Flags().GetString("sort")
	direction, _ := cmd.Flags().GetString("direction")
	params.Sort = model.SortState{
		Field:     model.SortField(sortField),
		Direction: model.SortDirection(direction),
	}
	params.Limit, _ = cmd.Flags().GetInt("limit")

	if err := params.Validate(); err != nil {
		return params, fmt.Errorf("invalid search parameters: %w", err)
	}
	return params, nil
}

// renderTenderTable prints a styled listing of tender previews.
func renderTenderTable(items []model.TenderPreview) {
	if len(items) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No tenders found"))
		return
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		cli.TableHeaderStyle.Width(14).Render("ID"),
		cli.TableHeaderStyle.Width(44).Render("Title"),
		cli.TableHeaderStyle.Width(26).Render("Organization"),
		cli.TableHeaderStyle.Width(16).Render("Budget"),
		cli.TableHeaderStyle.Width(12).Render("Submitted"),
	)
	fmt.Println(header)

	for _, t := range items {
		id := t.TenderID
		if t.Saved {
			id = cli.SavedStyle.Render(cli.SavedIcon) + " " + id
		}
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top,
			cli.TableCellStyle.Width(14).Render(id),
			cli.TableCellStyle.Width(44).Render(truncate(t.Title, 40)),
			cli.TableCellStyle.Width(26).Render(truncate(t.Organization, 22)),
			cli.TableCellStyle.Width(16).Render(formatBudget(t.Budget)),
			cli.TableCellStyle.Width(12).Render(t.SubmissionDate.Format("2006-01-02")),
		))
	}
}

func formatBudget(b model.Budget) string {
	if b.Amount == 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f %s", b.Amount, b.Currency)
}

// truncate shortens s to at most n runes, ending with an ellipsis.
// Cutting on runes rather than bytes keeps accented and non-Latin
// titles intact.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}
