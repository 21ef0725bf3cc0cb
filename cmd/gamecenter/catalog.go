package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gamecenter/internal/catalog"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F0F0F0"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	availableStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	soonStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle      = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

var (
	catalogCategory   string
	catalogDifficulty string
	catalogStatus     string
	catalogSearch     string
	catalogSummary    bool
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List games in the catalog",
		Args:  cobra.NoArgs,
		RunE:  runCatalogCmd,
	}
	cmd.Flags().StringVar(&catalogCategory, "category", "", "filter by category")
	cmd.Flags().StringVar(&catalogDifficulty, "difficulty", "", "filter by difficulty")
	cmd.Flags().StringVar(&catalogStatus, "status", "", "filter by status")
	cmd.Flags().StringVar(&catalogSearch, "search", "", "search title, description and tags")
	cmd.Flags().BoolVar(&catalogSummary, "summary", false, "print counts instead of entries")
	return cmd
}

func runCatalogCmd(cmd *cobra.Command, _ []string) error {
	f, err := parseFilter(catalogCategory, catalogDifficulty, catalogStatus, catalogSearch)
	if err != nil {
		return err
	}
	cat := catalog.Default()
	out := cmd.OutOrStdout()
	if catalogSummary {
		return printSummary(out, cat.Summary())
	}
	printCatalog(out, cat.Filter(f))
	return nil
}

func parseFilter(category, difficulty, status, search string) (catalog.Filter, error) {
	var f catalog.Filter
	var err error
	if category != "" {
		if f.Category, err = catalog.ParseCategory(category); err != nil {
			return f, err
		}
	}
	if difficulty != "" {
		if f.Difficulty, err = catalog.ParseDifficulty(difficulty); err != nil {
			return f, err
		}
	}
	if status != "" {
		if f.Status, err = catalog.ParseStatus(status); err != nil {
			return f, err
		}
	}
	f.SearchTerm = search
	return f, nil
}

func printCatalog(w io.Writer, games []catalog.GameDescriptor) {
	if len(games) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no games match"))
		return
	}
	for _, g := range games {
		status := availableStyle.Render(string(g.Status))
		if g.Status != catalog.StatusAvailable {
			status = soonStyle.Render(string(g.Status))
		}
		lines := []string{
			titleStyle.Render(g.Icon+" "+g.Title) + "  " + status,
			mutedStyle.Render(fmt.Sprintf("%s · %s · %s", g.ID, g.Category, g.Difficulty)),
			g.Description,
		}
		if len(g.Tags) > 0 {
			lines = append(lines, mutedStyle.Render("#"+strings.Join(g.Tags, " #")))
		}
		fmt.Fprintln(w, cardStyle.Render(strings.Join(lines, "\n")))
	}
}

func printSummary(w io.Writer, s catalog.Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}
