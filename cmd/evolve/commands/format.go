package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/aegis/v13/optimizer/internal/optimizer"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a titled block of key-value lines
func PrintHeader(title string, keys []string, values map[string]string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
	for _, k := range keys {
		fmt.Printf("  %-12s: %s\n", k, values[k])
	}
	PrintSeparator()
}

// PrintProgress prints a progress step with counter
// Example: [Evolve] best=1.2345 mean=1.1000 [10/200]
func PrintProgress(tag string, message string, current int, total int) {
	fmt.Printf("[%s] %s [%d/%d]\n", tag, message, current, total)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintAllocation prints the best allocation of a run as a table
func PrintAllocation(best optimizer.Allocation) {
	widths := []int{10, 12, 8, 24}
	PrintTableHeader([]string{"CODE", "AMOUNT", "WEIGHT", ""}, widths)
	for _, h := range best.Holdings {
		PrintTableRow([]string{
			h.Code,
			fmt.Sprintf("%.4f", h.Amount),
			formatPct(h.Weight),
			weightBar(h.Weight, widths[3]),
		}, widths)
	}
}

// PrintMetrics prints the evaluation metrics of a run
func PrintMetrics(best optimizer.Allocation) {
	m := best.Metrics
	PrintKeyValue("Score", fmt.Sprintf("%.4f", best.Score), 14)
	PrintKeyValue("Annual return", formatPct(m.AnnualReturn), 14)
	PrintKeyValue("Volatility", formatPct(m.AnnualVolatility), 14)
	PrintKeyValue("Sharpe", fmt.Sprintf("%.3f", m.Sharpe), 14)
	PrintKeyValue("VaR 95", formatPct(m.VaR95), 14)
	PrintKeyValue("CVaR 95", formatPct(m.CVaR95), 14)
}

func formatPct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// weightBar renders w in [0, 1] as a bar of at most width cells
func weightBar(w float64, width int) string {
	n := int(w*float64(width) + 0.5)
	if n < 0 {
		n = 0
	}
	if n > width {
		n = width
	}
	return strings.Repeat("█", n)
}
