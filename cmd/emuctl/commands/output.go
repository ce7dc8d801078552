package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/cloudemu/engine/pkg/apiclient"
	"github.com/olekukonko/tablewriter"
)

type tableRenderer interface {
	Headers() []string
	Rows() [][]string
}

func printTable(w io.Writer, data tableRenderer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(data.Rows())
	table.Render()
}

// printOutput writes v as JSON or as the table, depending on --output.
func printOutput(w io.Writer, v any, empty bool, emptyMsg string, table tableRenderer) error {
	switch flags.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "table", "":
		if empty {
			_, err := fmt.Fprintln(w, emptyMsg)
			return err
		}
		printTable(w, table)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", flags.output)
	}
}

type instanceList []apiclient.Instance

func (l instanceList) Headers() []string {
	return []string{"INSTANCE ID", "IDENTIFIER", "IMAGE", "TYPE", "STATUS"}
}

func (l instanceList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, i := range l {
		rows = append(rows, []string{shortID(i.InstanceID), i.Identifier, i.AmiID, i.InstanceType, i.Status})
	}
	return rows
}

type dbInstanceList []apiclient.DBInstance

func (l dbInstanceList) Headers() []string {
	return []string{"INSTANCE ID", "IDENTIFIER", "ENGINE", "ENDPOINT", "STATUS"}
}

func (l dbInstanceList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, d := range l {
		rows = append(rows, []string{shortID(d.InstanceID), d.Identifier, d.Engine, d.Endpoint + ":" + strconv.Itoa(d.Port), d.Status})
	}
	return rows
}

// shortID trims runtime ids the way docker ps does.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
