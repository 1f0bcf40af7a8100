package ats

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// WriteReport renders cmp as an aligned plain-text table.
func WriteReport(w io.Writer, cmp Comparison) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Axis\tOriginal\tTailored\tIndustry\t")
	for _, a := range Axes {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.1f\t\n",
			a, cmp.Original.Score(a), cmp.Tailored.Score(a), cmp.IndustryAverage)
	}
	fmt.Fprintf(tw, "Average\t%.1f\t%.1f\t%.1f\t\n",
		cmp.Original.Average, cmp.Tailored.Average, cmp.IndustryAverage)
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	_, err := fmt.Fprintf(w, "\nImprovement: %+.1f points\n", cmp.Improvement)
	return err
}
