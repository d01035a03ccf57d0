// meshinfo inspects OBJ files without a GPU: material groups, buffer
// layouts and bounds as the viewer would compute them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/Faultbox/meshport/internal/assets"
	"github.com/Faultbox/meshport/internal/engine/ingest"
	"github.com/Faultbox/meshport/internal/engine/loader"
	"github.com/Faultbox/meshport/internal/engine/model"
	"github.com/Faultbox/meshport/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var show func(io.Writer, *loader.Dataset)
	switch command {
	case "info":
		show = printInfo
	case "layout":
		show = printLayout
	case "bounds":
		show = printBounds
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err := run(command, args, os.Stdout, show); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshinfo - OBJ/MTL mesh inspector

Usage:
  meshinfo <command> [options] <file.obj> [more.obj ...]

Commands:
  info     Show material groups and shading per file
  layout   Show vertex buffer layout per material group
  bounds   Show per-file and aggregate bounds

Options:
  -search <dirs>   Extra material/texture search paths (path list, repeatable)
  -v               Log progress and warnings to stderr

Examples:
  meshinfo info model.obj
  meshinfo layout -search ./textures a.obj b.obj`)
}

// run loads args through the same coordinator the viewer uses and prints
// the drained dataset.
func run(command string, args []string, out io.Writer, show func(io.Writer, *loader.Dataset)) error {
	finder := assets.NewFinder()
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.Func("search", "Extra material/texture search paths (repeatable)", func(list string) error {
		for _, dir := range filepath.SplitList(list) {
			finder.AddSearchPath(dir)
		}
		return nil
	})
	verbose := fs.Bool("v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *verbose {
		if err := logger.Init("debug", ""); err != nil {
			return err
		}
		defer logger.Sync()
	}

	coord := loader.NewCoordinator(ingest.New(finder))
	defer coord.Close()

	seq, err := coord.Load(fs.Args(), nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	st, err := coord.Wait(ctx, seq)
	if err != nil {
		return err
	}
	if st.State == loader.Failed {
		return st.Err
	}

	var ds loader.Dataset
	coord.Drain(&ds, nopUploader{})
	show(out, &ds)

	if st.Failed > 0 {
		return fmt.Errorf("%d of %d files could not be loaded", st.Failed, st.Total)
	}
	return nil
}

// nopUploader hands out no GPU objects. Groups keep zero handles.
type nopUploader struct{}

func (nopUploader) Upload(*model.MaterialGroup) (model.GPUHandle, error) { return model.GPUHandle{}, nil }
func (nopUploader) Release(model.GPUHandle)                              {}

func printInfo(w io.Writer, ds *loader.Dataset) {
	for _, a := range ds.Assets {
		fmt.Fprintln(w, ingest.Describe(a))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  GROUP\tINDICES\tTEXTURE\tAMBIENT\tDIFFUSE\tSPECULAR\tNs\tOPACITY")
		for _, g := range a.Groups {
			s := g.Shading
			tex := "-"
			if g.HasTexture {
				tex = filepath.Base(g.TexturePath)
			}
			fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%s\t%s\t%g\t%g\n",
				groupName(g), g.IndexCount, tex,
				rgb(s.Ambient), rgb(s.Diffuse), rgb(s.Specular), s.Shininess, s.Opacity)
		}
		tw.Flush()
	}
}

func printLayout(w io.Writer, ds *loader.Dataset) {
	for _, a := range ds.Assets {
		fmt.Fprintln(w, a.SourcePath)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  GROUP\tVERTICES\tTEXCOORDS\tNORMALS\tPOS@\tTEX@\tNRM@\tBYTES\tINDICES")
		for _, g := range a.Groups {
			l := g.Layout
			fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
				groupName(g), l.NumVertices, l.NumTexCoords, l.NumNormals,
				l.PositionsOffset, l.TexCoordsOffset, l.NormalsOffset, l.TotalBytes, g.IndexCount)
		}
		tw.Flush()
	}
}

func printBounds(w io.Writer, ds *loader.Dataset) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tMIN\tMAX\tSIZE")
	for _, a := range ds.Assets {
		fmt.Fprintf(tw, "%s\t%s\n", filepath.Base(a.SourcePath), boundsRow(a.Bounds))
	}
	fmt.Fprintf(tw, "(all)\t%s\n", boundsRow(ds.Bounds))
	tw.Flush()
}

func boundsRow(b model.Bounds) string {
	if !b.Valid {
		return "-\t-\t-"
	}
	return fmt.Sprintf("%s\t%s\t%s", xyz(b.Min), xyz(b.Max), xyz(b.Size()))
}

func groupName(g *model.MaterialGroup) string {
	if g.Name == "" {
		return "(default)"
	}
	return g.Name
}

func rgb(c [3]float32) string {
	return fmt.Sprintf("%.3g,%.3g,%.3g", c[0], c[1], c[2])
}

func xyz(v [3]float32) string {
	return fmt.Sprintf("(%.4g, %.4g, %.4g)", v[0], v[1], v[2])
}
