package utils

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/voxelsplace/voxgen/catalog"
)

// RunCatalogList prints the catalog entries for name, or all entries when
// name is empty, as an aligned table.
func RunCatalogList(ctx context.Context, dbPath, name string, w io.Writer) error {
	c, err := catalog.Open(dbPath)
	if err != nil {
		return err
	}
	defer c.Close()
	entries, err := c.List(ctx, name)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGEN\tSYMBOLS\tVOXELS\tCOLORS\tDIGEST\tCREATED\tPATH")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			e.Name, e.Generations, e.Symbols, e.Voxels, e.Colors, e.Digest,
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Path)
	}
	return tw.Flush()
}
