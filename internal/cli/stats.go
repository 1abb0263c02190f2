package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/raphaelgruber/helpdesk-go/internal/metrics"
)

// printStats displays client call statistics.
func printStats(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(w, "Client Statistics (this session)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", snap.UptimeSeconds)

	if len(snap.Operations) == 0 {
		fmt.Fprintf(w, "\nNo backend calls.\n")
		return
	}
	for _, op := range snap.Operations {
		fmt.Fprintf(w, "\n%s:\n", op.Op)
		printOpStats(w, op)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(w io.Writer, op metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)

	if len(op.ByKind) == 0 {
		return
	}
	kinds := make([]string, 0, len(op.ByKind))
	for k := range op.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-20s %d\n", k+":", op.ByKind[k])
	}
}
