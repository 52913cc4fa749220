package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/mockai/internal/catalog"
	"github.com/suPer8Hu/mockai/internal/config"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	ownerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)
)

func newModelsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models the server advertises",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = config.Load().ModelsFile
			}
			cat, err := loadCatalog(file)
			if err != nil {
				return err
			}
			printModels(cmd.OutOrStdout(), cat.List())
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "models YAML file (overrides MODELS_FILE)")
	return cmd
}

func printModels(w io.Writer, models []catalog.Model) {
	idWidth := len("MODEL")
	for _, m := range models {
		idWidth = max(idWidth, lipgloss.Width(m.ID))
	}
	pad := func(s string) string {
		return s + strings.Repeat(" ", idWidth-lipgloss.Width(s)+2)
	}

	fmt.Fprintln(w, headerStyle.Render(pad("MODEL")+"CAPABILITY"))
	for _, m := range models {
		fmt.Fprintf(w, "%s%s %s\n",
			idStyle.Render(pad(m.ID)),
			m.Capability,
			ownerStyle.Render("("+m.OwnedBy+")"),
		)
	}
	fmt.Fprintf(w, "\n%s\n", countStyle.Render(fmt.Sprintf("%d models", len(models))))
}
