package commands

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hxia920/PSID/internal/varmap"
)

// NewWavesCommand creates the waves command.
func NewWavesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "waves",
		Short: "Show per-wave mapping coverage",
		Long: `Print one row per declared wave with the concepts collected that wave,
flagging concepts with no mapping entry. Gaps are often legitimate (a
question not asked that year) but surface misnumbered raw names quickly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig()

			maps, err := varmap.Load(cfg.MappingFile)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Wave", "Individual", "Family", "Missing"})
			for _, w := range cfg.Waves {
				indHave, indMiss := coverage(maps.Individual, w)
				famHave, famMiss := coverage(maps.Family, w)
				missing := append(indMiss, famMiss...)
				t.AppendRow(table.Row{w, indHave, famHave, strings.Join(missing, " ")})
			}
			t.Render()
			return nil
		},
	}
}

func coverage(m *varmap.Map, wave int) (int, []string) {
	have := 0
	var missing []string
	for _, name := range m.Concepts() {
		if _, collected, _ := m.Resolve(name, wave); collected {
			have++
		} else {
			missing = append(missing, name)
		}
	}
	return have, missing
}
