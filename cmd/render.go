package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"valuerank/internal/report"
	"valuerank/internal/series"
	"valuerank/internal/types"
)

const (
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorReset = "\033[0m"
)

// stdoutColor reports whether ANSI colours should be written to stdout.
func stdoutColor() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
}

// formatWon renders a valuation with Korean digit grouping. Fractions are
// kept only when present.
func formatWon(v float64) string {
	p := message.NewPrinter(language.Korean)
	return p.Sprintf("%v", number.Decimal(v, number.MaxFractionDigits(6)))
}

// rankChange describes the move from prev to cur. A smaller rank is an
// improvement: green up, red down.
func rankChange(prev, cur int, color bool) string {
	if prev == 0 {
		return ""
	}
	d := prev - cur
	switch {
	case d > 0:
		return paint(fmt.Sprintf("▲%d", d), colorGreen, color)
	case d < 0:
		return paint(fmt.Sprintf("▼%d", -d), colorRed, color)
	}
	return "-"
}

func paint(s, c string, color bool) string {
	if !color {
		return s
	}
	return c + s + colorReset
}

// renderRanks prints one line per year. The change column is last so the
// colour codes do not disturb column widths.
func renderRanks(w io.Writer, ranks []types.UnitRank, color bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "YEAR\tVALUATION\tZONE RANK\tGLOBAL RANK\tCHANGE (ZONE / GLOBAL)")
	_, _ = fmt.Fprintln(tw, "----\t---------\t---------\t-----------\t----------------------")

	var prev *types.UnitRank
	for i := range ranks {
		r := ranks[i]
		change := ""
		if prev != nil {
			change = rankChange(prev.Zone.Rank, r.Zone.Rank, color) + " / " + rankChange(prev.Global.Rank, r.Global.Rank, color)
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.Year, formatWon(r.Valuation), r.Zone.Text(), r.Global.Text(), change)
		prev = &ranks[i]
	}
	return tw.Flush()
}

// renderComparable prints a comparable result, or note when none was found.
func renderComparable(w io.Writer, res *types.ComparableResult, note string) {
	if res == nil {
		fmt.Fprintf(w, "Comparable        : none (%s)\n", note)
		return
	}
	fmt.Fprintf(w, "Comparable        : %s\n", res.Candidate)
	fmt.Fprintf(w, "Zone              : %s\n", res.CandidateZone)
	fmt.Fprintf(w, "Base year         : %d (difference %s)\n", res.BaseYear, formatWon(res.BaseYearDiff))
	if res.RankSwing != nil {
		fmt.Fprintf(w, "Latest year       : %d\n", res.LatestYear)
		fmt.Fprintf(w, "Rank gap          : %+d -> %+d (swing %.0f)\n", res.RankDeltaBase, res.RankDeltaLatest, *res.RankSwing)
	}
}

// renderSeries prints aligned series side by side, one row per year of the
// first series.
func renderSeries(w io.Writer, ss []series.Series) error {
	if len(ss) == 0 {
		_, err := fmt.Fprintln(w, "(no series)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := []string{"YEAR"}
	for _, s := range ss {
		header = append(header, s.Label)
	}
	_, _ = fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	for i, y := range ss[0].Years {
		cells := []string{strconv.Itoa(y)}
		for _, s := range ss {
			if i < s.Len() {
				cells = append(cells, formatWon(s.Values[i]))
			} else {
				cells = append(cells, "")
			}
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t")+"\t")
	}
	return tw.Flush()
}

// renderReport prints the inspection view of one unit.
func renderReport(w io.Writer, rep *report.Report, color bool) error {
	fmt.Fprintln(w, strings.Repeat("-", 80))
	fmt.Fprintf(w, "Unit              : %s\n", rep.Unit)
	if latest, ok := rep.Latest(); ok {
		fmt.Fprintf(w, "Zone rank (%d)  : %s\n", latest.Year, latest.Zone.Text())
		fmt.Fprintf(w, "Global rank (%d): %s\n", latest.Year, latest.Global.Text())
		fmt.Fprintf(w, "Valuation         : %s\n", formatWon(latest.Valuation))
	} else {
		fmt.Fprintln(w, "Valuation         : no assessed values")
	}
	fmt.Fprintln(w)

	if err := renderRanks(w, rep.Ranks, color); err != nil {
		return err
	}
	fmt.Fprintln(w)

	renderComparable(w, rep.Comparable, rep.ComparableNote)
	fmt.Fprintln(w)

	if err := renderSeries(w, rep.Prices); err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, rep.Disclaimer)
	return nil
}

// renderChoices prints the options of the next selection level.
func renderChoices(w io.Writer, level types.Level, options []string) {
	if level == types.LevelDone {
		fmt.Fprintln(w, "Selection is complete.")
		return
	}
	fmt.Fprintf(w, "%s (%d):\n", levelTitles[level], len(options))
	for _, o := range options {
		fmt.Fprintf(w, "  %s\n", o)
	}
}
