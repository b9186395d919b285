package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/momentics/hcibuf/control"
	"github.com/momentics/hcibuf/pool"
)

var (
	layoutOutput   string
	layoutInbound  int
	layoutOutbound int
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Show how pool slots are partitioned between traffic classes",
	Long: `Build the pool from configuration and print which slots serve
inbound ACL data, outbound ACL data and command/event traffic.

Examples:
  # Default layout (20 buffers, 5 inbound, 5 outbound)
  hcibufctl layout

  # Try a different split without editing the config file
  hcibufctl layout --inbound 8 --outbound 6

  # Output as YAML
  hcibufctl layout -o yaml`,
	RunE: runLayout,
}

func init() {
	layoutCmd.Flags().StringVarP(&layoutOutput, "output", "o", "table", "Output format (table|json|yaml)")
	layoutCmd.Flags().IntVar(&layoutInbound, "inbound", 0, "inbound ACL buffers (overrides config)")
	layoutCmd.Flags().IntVar(&layoutOutbound, "outbound", 0, "outbound ACL buffers (overrides config)")
}

// layoutRow is the structured form of one partition.
type layoutRow struct {
	List    string   `json:"list" yaml:"list"`
	Classes []string `json:"classes" yaml:"classes"`
	First   int      `json:"first" yaml:"first"`
	Count   int      `json:"count" yaml:"count"`
}

func runLayout(cmd *cobra.Command, args []string) error {
	c := *cfg
	if cmd.Flags().Changed("inbound") {
		c.Pool.Inbound = layoutInbound
	}
	if cmd.Flags().Changed("outbound") {
		c.Pool.Outbound = layoutOutbound
	}
	if err := control.Validate(&c); err != nil {
		return err
	}
	p, err := control.NewPool(c)
	if err != nil {
		return err
	}

	rows := layoutRows(p)
	if layoutOutput != "table" {
		return printStructured(cmd.OutOrStdout(), layoutOutput, rows)
	}

	data := newTableData("List", "Classes", "Slots", "Count")
	for _, r := range rows {
		data.addRow(r.List, strings.Join(r.Classes, ","), slotRange(r.First, r.Count), strconv.Itoa(r.Count))
	}
	printTable(cmd.OutOrStdout(), data)
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d buffers of %d bytes, acquire policy %s\n",
		p.NumBuffers(), p.Capacity(), p.Policy())
	return nil
}

func layoutRows(p *pool.Pool) []layoutRow {
	parts := p.Layout()
	rows := make([]layoutRow, 0, len(parts))
	for _, part := range parts {
		classes := make([]string, 0, len(part.Classes))
		for _, c := range part.Classes {
			classes = append(classes, c.String())
		}
		rows = append(rows, layoutRow{List: part.List, Classes: classes, First: part.First, Count: part.Count})
	}
	return rows
}

func slotRange(first, count int) string {
	switch count {
	case 0:
		return "-"
	case 1:
		return strconv.Itoa(first)
	}
	return fmt.Sprintf("%d-%d", first, first+count-1)
}
