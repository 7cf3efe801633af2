package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var csvHeader = []string{"Test ID", "Order ID", "Customer", "Drinks", "Loyal", "Arrival Time", "Wait Time (min)", "Priority Score", "Reason", "Barista"}

// WriteCSV writes the record's orders in arrival order, one row per order.
func WriteCSV(w io.Writer, rec Record) error {
	rows := append([]ServedOrder(nil), rec.Orders...)
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].ArrivedAt.Equal(rows[j].ArrivedAt) {
			return rows[i].ArrivedAt.Before(rows[j].ArrivedAt)
		}
		return rows[i].ID < rows[j].ID
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	test := strconv.Itoa(rec.TestNumber)
	for _, o := range rows {
		err := cw.Write([]string{
			test,
			o.ID,
			o.Customer,
			strings.Join(o.Drinks, "+"),
			strconv.FormatBool(o.Loyal),
			o.ArrivedAt.Format("15:04:05"),
			fmt.Sprintf("%.1f", o.WaitMinutes),
			fmt.Sprintf("%.1f", o.PriorityScore),
			o.PriorityReason,
			strconv.Itoa(o.BaristaID),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
