/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"

	serial "github.com/allbin/go-serial-term"
	"github.com/allbin/go-serial-term/internal/transport"
	"github.com/allbin/go-serial-term/internal/tui/colors"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available serial ports",
	Long: `List the serial ports a terminal session can be opened on.

By default this scans /dev for communication-capable devices:
- USB serial adapters (ttyUSB*)
- USB CDC/ACM devices (ttyACM*)
- Standard serial ports (ttyS*)
- ARM/Raspberry Pi ports (ttyAMA*)
- And other platform-specific serial devices

Virtual terminals and pseudo-terminals are excluded unless --all is given,
which lists every port the portable driver can see. --detailed adds USB
vendor, product and serial number.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filterType, _ := cmd.Flags().GetString("filter")
		tableFormat, _ := cmd.Flags().GetBool("table")
		all, _ := cmd.Flags().GetBool("all")
		detailed, _ := cmd.Flags().GetBool("detailed")

		if detailed {
			details, err := transport.ListDetailed()
			if err != nil {
				return fmt.Errorf("listing ports: %w", err)
			}
			fmt.Println(detailedTable(details))
			return nil
		}

		ports, err := transport.ListPorts(all)
		if err != nil {
			return fmt.Errorf("listing ports: %w", err)
		}
		ports = filterPorts(ports, filterType)

		if len(ports) == 0 {
			if filterType != "" {
				fmt.Printf("No serial ports found matching filter: %s\n", filterType)
			} else {
				fmt.Println("No serial ports found")
			}
			return nil
		}

		if tableFormat {
			fmt.Printf("Found %d serial port(s):\n\n", len(ports))
			fmt.Println(portTable(ports))
			return nil
		}
		for _, port := range ports {
			fmt.Println(port)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringP("filter", "f", "", "Filter by port type: usb, standard, arm, all")
	listCmd.Flags().BoolP("table", "t", false, "Display output in a table")
	listCmd.Flags().BoolP("all", "a", false, "Include every port the portable driver reports")
	listCmd.Flags().BoolP("detailed", "d", false, "Show USB details for each port")
}

// filterPorts filters the port list based on the specified filter type
func filterPorts(ports []string, filterType string) []string {
	filterType = strings.ToLower(filterType)
	if filterType == "" || filterType == "all" {
		return ports
	}

	var filtered []string
	for _, port := range ports {
		name := strings.ToLower(port[strings.LastIndex(port, "/")+1:])
		var keep bool
		switch filterType {
		case "usb":
			keep = strings.HasPrefix(name, "ttyusb") || strings.HasPrefix(name, "ttyacm")
		case "standard":
			keep = strings.HasPrefix(name, "ttys") && !strings.HasPrefix(name, "ttysac")
		case "arm":
			keep = strings.HasPrefix(name, "ttyama")
		}
		if keep {
			filtered = append(filtered, port)
		}
	}
	return filtered
}

func styledTable(columns []table.Column, rows []table.Row) string {
	return table.New(columns).
		WithRows(rows).
		BorderRounded().
		HeaderStyle(lipgloss.NewStyle().Bold(true).Foreground(colors.Mauve)).
		WithBaseStyle(lipgloss.NewStyle().Foreground(colors.Text).Align(lipgloss.Left)).
		View()
}

func portTable(ports []string) string {
	columns := []table.Column{
		table.NewColumn("port", "Port", 20),
		table.NewColumn("type", "Type", 20),
		table.NewColumn("desc", "Description", 30),
	}

	rows := make([]table.Row, 0, len(ports))
	for _, port := range ports {
		row := table.RowData{"port": port, "type": "Unknown", "desc": "-"}
		if info, err := serial.GetPortInfo(port); err == nil {
			row["type"] = getPortType(info.Name)
			row["desc"] = info.Description
			if info.Product != "" {
				row["desc"] = info.Product
			}
		} else {
			row["desc"] = fmt.Sprintf("Error: %v", err)
		}
		rows = append(rows, table.NewRow(row))
	}
	return styledTable(columns, rows)
}

func detailedTable(details []transport.PortDetails) string {
	columns := []table.Column{
		table.NewColumn("port", "Port", 20),
		table.NewColumn("desc", "Description", 22),
		table.NewColumn("vidpid", "VID:PID", 11),
		table.NewColumn("serial", "Serial", 18),
		table.NewColumn("product", "Product", 24),
	}

	rows := make([]table.Row, 0, len(details))
	for _, d := range details {
		vidpid := "-"
		if d.IsUSB {
			vidpid = d.VendorID + ":" + d.ProductID
		}
		rows = append(rows, table.NewRow(table.RowData{
			"port":    d.Name,
			"desc":    d.Description,
			"vidpid":  vidpid,
			"serial":  d.SerialNumber,
			"product": d.Product,
		}))
	}
	return styledTable(columns, rows)
}

// getPortType returns a more specific type classification for the port
func getPortType(name string) string {
	name = strings.ToLower(name)
	switch {
	case strings.HasPrefix(name, "ttyusb"):
		return "USB Serial"
	case strings.HasPrefix(name, "ttyacm"):
		return "USB CDC/ACM"
	case strings.HasPrefix(name, "ttyama"):
		return "ARM Serial"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial"
	case strings.HasPrefix(name, "ttysac"):
		return "Samsung Serial"
	case strings.HasPrefix(name, "ttyths"):
		return "Tegra Serial"
	case strings.HasPrefix(name, "ttyo"):
		return "OMAP Serial"
	case strings.HasPrefix(name, "ttys"):
		return "Standard Serial"
	default:
		return "Serial Port"
	}
}
