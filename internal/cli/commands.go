package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tsawler/folio"
	"github.com/tsawler/folio/pdfops"
)

// pageSelection is the --pages flag shared by the PDF commands. Unset
// means every page.
func pageSelection(cmd *cobra.Command, pages *[]int) {
	cmd.Flags().IntSliceVar(pages, "pages", nil, "Pages to change, 1-based (default: all)")
}

func (a *App) newConvertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a document to the format named by the output extension",
		Example: `  folio convert notes.md notes.pdf
  folio convert report.docx report.html
  folio convert scan.pdf scan.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Convert(cmd.Context(), args[0], args[1])
		},
	}
}

func (a *App) newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split <input> <output-dir>",
		Short: "Write every page to its own PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := a.engine.Split(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(a.stdout, p)
			}
			return nil
		},
	}
}

func (a *App) newMergeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:     "merge -o <output> <input>...",
		Short:   "Concatenate documents into one",
		Example: `  folio merge -o all.pdf cover.md body.pdf appendix.docx`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Merge(cmd.Context(), args, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func (a *App) newRotateCmd() *cobra.Command {
	var degrees int
	var pages []int
	cmd := &cobra.Command{
		Use:   "rotate <input> <output>",
		Short: "Rotate pages clockwise",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Rotate(cmd.Context(), args[0], args[1], degrees, pages)
		},
	}
	cmd.Flags().IntVarP(&degrees, "degrees", "d", 90, "Rotation: 90, 180 or 270")
	pageSelection(cmd, &pages)
	return cmd
}

func (a *App) newCropCmd() *cobra.Command {
	var box folio.Box
	var pages []int
	cmd := &cobra.Command{
		Use:   "crop <input> <output>",
		Short: "Set the visible area of pages, in percent of the page",
		Example: `  # keep the middle half of every page
  folio crop in.pdf out.pdf --x 25 --y 25 --width 50 --height 50`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Crop(cmd.Context(), args[0], args[1], box, pages)
		},
	}
	cmd.Flags().Float64Var(&box.X, "x", 0, "Left edge in percent")
	cmd.Flags().Float64Var(&box.Y, "y", 0, "Bottom edge in percent")
	cmd.Flags().Float64Var(&box.W, "width", 100, "Width in percent")
	cmd.Flags().Float64Var(&box.H, "height", 100, "Height in percent")
	pageSelection(cmd, &pages)
	return cmd
}

func (a *App) newOrganizeCmd() *cobra.Command {
	var order []int
	cmd := &cobra.Command{
		Use:     "organize <input> <output>",
		Short:   "Reorder pages; pages not listed are dropped",
		Example: `  folio organize in.pdf out.pdf --order 3,1,2`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Organize(cmd.Context(), args[0], args[1], order)
		},
	}
	cmd.Flags().IntSliceVar(&order, "order", nil, "New page order, 1-based (required)")
	_ = cmd.MarkFlagRequired("order")
	return cmd
}

func (a *App) newDeleteCmd() *cobra.Command {
	var pages []int
	cmd := &cobra.Command{
		Use:   "delete <input> <output>",
		Short: "Remove pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.DeletePages(cmd.Context(), args[0], args[1], pages)
		},
	}
	cmd.Flags().IntSliceVar(&pages, "pages", nil, "Pages to remove, 1-based (required)")
	_ = cmd.MarkFlagRequired("pages")
	return cmd
}

func (a *App) newNumberCmd() *cobra.Command {
	var opts folio.NumberOptions
	var position string
	cmd := &cobra.Command{
		Use:   "number <input> <output>",
		Short: "Stamp page numbers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := pdfops.ParsePosition(position)
			if err != nil {
				return err
			}
			opts.Position = pos
			return a.engine.Number(cmd.Context(), args[0], args[1], opts)
		},
	}
	cmd.Flags().IntVar(&opts.Start, "start", 1, "Number of the first page")
	cmd.Flags().StringVar(&position, "position", pdfops.BottomCenter.String(),
		"bottom-center, bottom-left, bottom-right, top-center, top-left or top-right")
	cmd.Flags().Float64Var(&opts.FontSize, "font-size", 10, "Font size in points")
	return cmd
}

func (a *App) newWatermarkCmd() *cobra.Command {
	var opts folio.WatermarkOptions
	cmd := &cobra.Command{
		Use:   "watermark <input> <output>",
		Short: "Draw diagonal text across pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Watermark(cmd.Context(), args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Text, "text", "t", "", "Watermark text (required)")
	cmd.Flags().Float64Var(&opts.FontSize, "font-size", 48, "Font size in points")
	cmd.Flags().Float64Var(&opts.Opacity, "opacity", 0.3, "Opacity in (0, 1]")
	pageSelection(cmd, &opts.Pages)
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func (a *App) newProtectCmd() *cobra.Command {
	var opts folio.ProtectOptions
	cmd := &cobra.Command{
		Use:   "protect <input> <output>",
		Short: "Encrypt with AES-128",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Protect(cmd.Context(), args[0], args[1], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "Owner password")
	cmd.Flags().StringVar(&opts.User, "user", "", "User password, needed to open the file")
	cmd.Flags().BoolVar(&opts.AllowPrint, "allow-print", false, "Allow printing")
	cmd.Flags().BoolVar(&opts.AllowCopy, "allow-copy", false, "Allow copying text")
	return cmd
}

func (a *App) newUnlockCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "unlock <input> <output>",
		Short: "Remove encryption",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.engine.Unlock(cmd.Context(), args[0], args[1], password)
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "User or owner password")
	return cmd
}

func (a *App) newCompressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compress <input> <output>",
		Short: "Shrink a PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := a.engine.Compress(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%d bytes saved\n", saved)
			return nil
		},
	}
}

func (a *App) newRepairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair <input> <output>",
		Short: "Rebuild a damaged PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.engine.Repair(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if report.Skipped > 0 {
				fmt.Fprintf(a.stdout, "%d damaged objects dropped\n", report.Skipped)
			}
			if report.Damaged > 0 {
				fmt.Fprintf(a.stdout, "%d streams with undecodable data kept\n", report.Damaged)
			}
			return nil
		},
	}
}

func (a *App) newPagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages <input>",
		Short: "Print the number of pages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.engine.PageCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, n)
			return nil
		},
	}
}
