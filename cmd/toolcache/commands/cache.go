package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.trai.ch/toolcache/internal/core/domain"
	"go.trai.ch/toolcache/internal/ui/style"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and prune the tool cache",
	}
	cmd.AddCommand(c.newCacheListCmd())
	cmd.AddCommand(c.newCacheCleanCmd())
	return cmd
}

func (c *CLI) newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached tools for this architecture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.ListCache(cmd.Context())
			if err != nil {
				return err
			}
			renderEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
}

func (c *CLI) newCacheCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean [tool]",
		Short: "Remove cached builds of a tool, or every cached build",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tool string
			if len(args) == 1 {
				tool = args[0]
			}
			_, err := c.app.Clean(cmd.Context(), tool)
			return err
		},
	}
}

func renderEntries(w io.Writer, entries []domain.CacheEntry) {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "no cached tools")
		return
	}

	rows := make([][]string, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		created := "-"
		if !e.Created.IsZero() {
			created = humanize.Time(e.Created)
		}
		rows = append(rows, []string{
			e.Key.Tool,
			e.Key.Version,
			e.Arch,
			humanize.Bytes(uint64(max(e.Size, 0))),
			created,
		})
	}

	cell := lipgloss.NewStyle().PaddingRight(2)
	t := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		Headers("TOOL", "VERSION", "ARCH", "SIZE", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return style.Header.PaddingRight(2)
			case col >= 2:
				return style.Muted.PaddingRight(2)
			default:
				return cell
			}
		})

	_, _ = fmt.Fprintln(w, t.String())
}
