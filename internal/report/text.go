package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/hubmatch/internal/model"
)

// WriteText writes every hub table followed by the mismatch report, the
// skip summary and the multi-assigned codes.
func WriteText(out io.Writer, r *model.Report) error {
	for _, t := range r.Tables {
		if err := WriteHubTable(out, t); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out)
	}

	if err := WriteMismatches(out, r.Mismatches); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out)

	writeSkipSummary(out, r.Skipped)

	if len(r.MultiAssigned) > 0 {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintf(out, "Postal codes assigned to more than one hub: %d\n", len(r.MultiAssigned))
		for _, m := range r.MultiAssigned {
			_, _ = fmt.Fprintf(out, "  %s: %s\n", m.Pincode, strings.Join(m.Hubs, ", "))
		}
	}
	return nil
}

// WriteHubTable writes one hub's distance table with its coverage line.
func WriteHubTable(out io.Writer, t model.HubTable) error {
	c := t.Coverage
	_, _ = fmt.Fprintf(out, "Hub: %s (%s, %s)\n", t.Hub.Name, coord(t.Hub.Location.Lat), coord(t.Hub.Location.Lon))
	_, _ = fmt.Fprintf(out, "Resolved: %d  Skipped: %d  Mean: %s km  Max: %s km  Within %s km: %d\n",
		c.Resolved, c.Skipped, km(c.MeanKM), km(c.MaxKM), km(c.RadiusKM), c.WithinRadius)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "POSTAL_CODE\tLATITUDE\tLONGITUDE\tDISTANCE_KM\tBAND")
	_, _ = fmt.Fprintln(w, "-----------\t--------\t---------\t-----------\t----")
	for _, row := range t.Rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", row.Pincode, coord(row.Lat), coord(row.Lon), km(row.DistanceKM), row.Band)
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "report: write hub table")
	}

	if len(t.Skipped) > 0 {
		_, _ = fmt.Fprintf(out, "Skipped (unresolved): %s\n", strings.Join(t.Skipped, ", "))
	}
	return nil
}

// WriteMismatches writes the mismatch report.
func WriteMismatches(out io.Writer, records []model.MismatchRecord) error {
	_, _ = fmt.Fprintf(out, "Mismatches: %d\n", len(records))
	if len(records) == 0 {
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "POSTAL_CODE\tCURRENT_HUB\tCURRENT_KM\tNEAREST_HUB\tNEAREST_KM\tDIFFERENCE_KM")
	_, _ = fmt.Fprintln(w, "-----------\t-----------\t----------\t-----------\t----------\t-------------")
	for _, m := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.Pincode, m.CurrentHub, km(m.CurrentDistanceKM), m.NearestHub, km(m.NearestDistanceKM), km(m.DifferenceKM))
	}
	return eris.Wrap(w.Flush(), "report: write mismatches")
}

func writeSkipSummary(out io.Writer, s model.SkipSummary) {
	_, _ = fmt.Fprintf(out, "Unresolved postal codes: %d\n", s.Total)
	for _, h := range s.PerHub {
		if len(h.Pincodes) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(out, "  %s: %d (%s)\n", h.Hub, len(h.Pincodes), strings.Join(h.Pincodes, ", "))
	}
}
