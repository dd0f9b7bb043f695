package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/edwinbf09/daily-activities/internal/activity"
	"github.com/edwinbf09/daily-activities/internal/cache"
	"github.com/edwinbf09/daily-activities/internal/report"
)

// PrintActivities writes list as a table followed by its totals.
func PrintActivities(w io.Writer, list []activity.Activity) {
	if len(list) == 0 {
		fmt.Fprintln(w, Subtle("No activities yet."))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("ID")+"\t"+
		headerStyle.Render("Date")+"\t"+
		headerStyle.Render("Name")+"\t"+
		headerStyle.Render("Category")+"\t"+
		headerStyle.Render("Amount")+"\t"+
		headerStyle.Render("Paid"))
	for _, a := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(a.ID.String()),
			a.Date,
			a.Name,
			CategoryLabel(a.Category),
			report.FormatCurrency(a.Amount),
			paidMark(a.IsPaid),
		)
	}
	tw.Flush()

	s := report.Summarize(list)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d activities, %s total, %s pending\n",
		s.Count, report.FormatCurrency(s.Total), report.FormatCurrency(s.PendingAmount))
}

// PrintActivity writes the full record of one activity.
func PrintActivity(w io.Writer, a activity.Activity) {
	fmt.Fprintf(w, "  ID:          %s\n", a.ID)
	fmt.Fprintf(w, "  Name:        %s\n", a.Name)
	fmt.Fprintf(w, "  Description: %s\n", a.DescriptionOr("-"))
	fmt.Fprintf(w, "  Date:        %s\n", a.Date)
	fmt.Fprintf(w, "  Amount:      %s\n", report.FormatCurrency(a.Amount))
	fmt.Fprintf(w, "  Category:    %s\n", CategoryLabel(a.Category))
	fmt.Fprintf(w, "  Paid:        %s\n", paidMark(a.IsPaid))
}

// PrintCategories lists the category ids with their display names.
func PrintCategories(w io.Writer) {
	fmt.Fprintln(w, Title("Categories"))
	for _, info := range activity.Categories {
		fmt.Fprintf(w, "  %-8s %s\n", info.ID, CategoryLabel(info.ID))
	}
}

// PrintPending lists queued offline changes.
func PrintPending(w io.Writer, pending []cache.Mutation) {
	if len(pending) == 0 {
		return
	}
	fmt.Fprintln(w, Warn(fmt.Sprintf("%d change(s) waiting to sync:", len(pending))))
	for _, m := range pending {
		fmt.Fprintf(w, "  %s %s %s\n", Subtle(m.QueuedAt.Local().Format("2006-01-02 15:04")), m.Kind, shortID(m.ActivityID.String()))
	}
}

// PrintSyncResult reports the outcome of a sync.
func PrintSyncResult(w io.Writer, res cache.SyncResult) {
	parts := []string{fmt.Sprintf("%d applied", res.Applied)}
	if res.Dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", res.Dropped))
	}
	if res.Remaining > 0 {
		parts = append(parts, fmt.Sprintf("%d still pending", res.Remaining))
	}
	fmt.Fprintln(w, Success("Sync finished: ")+strings.Join(parts, ", "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func paidMark(paid bool) string {
	if paid {
		return "yes"
	}
	return "no"
}
