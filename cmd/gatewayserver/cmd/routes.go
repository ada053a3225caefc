package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gateway-server/internal/routes"

	"github.com/spf13/cobra"
)

const publicPermissions = "(public)"

var routesFile string

func init() {
	routesCheckCmd.Flags().StringVarP(&routesFile, "file", "f", "routes.yaml", "routes file to check")
	routesCmd.AddCommand(routesCheckCmd)
	rootCmd.AddCommand(routesCmd)
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Inspect route declarations",
}

var routesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a routes file",
	Long: `Load and compile a routes file, printing each route with its expanded
permission set. Exits non-zero on unknown permission names or malformed routes.

Examples:
  gatewayserver routes check --file routes.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := routes.Load(routesFile)
		if err != nil {
			return err
		}
		return printRoutes(cmd.OutOrStdout(), table)
	},
}

func printRoutes(out io.Writer, table *routes.Table) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATH\tUPSTREAMS\tPERMISSIONS")
	for _, r := range table.Routes() {
		perms := publicPermissions
		if r.Protected() {
			names := make([]string, 0, len(r.Policy().Permissions()))
			for _, p := range r.Policy().Permissions() {
				names = append(names, p.String())
			}
			perms = "[" + strings.Join(names, ",") + "]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Path, strings.Join(r.Upstreams, ","), perms)
	}
	return w.Flush()
}
