package orders

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders a rupee amount with digit grouping for tables.
func FormatAmount(amount float64) string {
	return message.NewPrinter(language.English).Sprintf("₹%.2f", amount)
}

// DisplayStatus title-cases a status for terminal output.
func DisplayStatus(s Status) string {
	value := strings.TrimSpace(string(s))
	if value == "" {
		return "Unknown"
	}
	return cases.Title(language.English).String(value)
}
