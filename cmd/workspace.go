/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

// workspaceCmd represents the workspace command
var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Show or change the workspace directory",
	Long: `The workspace is the directory recordings are saved to and playback
files are read from. The selection is kept in
$XDG_CONFIG_HOME/serterm/state.yaml; --workspace overrides it for one run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openWorkspace()
		if err != nil {
			return err
		}
		if dir := store.ActiveWorkspace(); dir != "" {
			fmt.Println(dir)
			return nil
		}
		fmt.Println("No workspace selected")
		return nil
	},
}

var workspaceSetCmd = &cobra.Command{
	Use:   "set <dir>",
	Short: "Select and remember the workspace directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openWorkspace()
		if err != nil {
			return err
		}
		if err := store.SetActive(args[0]); err != nil {
			return err
		}
		logger.Info().Str("workspace", store.ActiveWorkspace()).Msg("Workspace selected")
		return nil
	},
}

var workspaceClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the remembered workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openWorkspace()
		if err != nil {
			return err
		}
		return store.Clear()
	},
}

var workspaceFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the playable .bin files in the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openWorkspace()
		if err != nil {
			return err
		}
		files, err := store.ListPlayableFiles()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No playable files in", store.ActiveWorkspace())
			return nil
		}

		columns := []table.Column{
			table.NewColumn("name", "File", 32),
			table.NewColumn("size", "Bytes", 10),
			table.NewColumn("modified", "Modified", 20),
		}
		rows := make([]table.Row, 0, len(files))
		for _, name := range files {
			row := table.RowData{"name": name, "size": "-", "modified": "-"}
			if info, err := os.Stat(filepath.Join(store.ActiveWorkspace(), name)); err == nil {
				row["size"] = fmt.Sprint(info.Size())
				row["modified"] = info.ModTime().Format("2006-01-02 15:04:05")
			}
			rows = append(rows, table.NewRow(row))
		}
		fmt.Println(styledTable(columns, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
	workspaceCmd.AddCommand(workspaceSetCmd, workspaceClearCmd, workspaceFilesCmd)
}
