package alerts

import (
	"fmt"

	"orderbell/internal/orders"
)

// FormatOrderMessage renders the alert text for an order, for example
// "🔔 New Order TEST1234! 2 items - ₹200.00 from Test Customer".
func FormatOrderMessage(o orders.Order) string {
	id := []rune(o.ID)
	if len(id) > 8 {
		id = id[:8]
	}
	count := o.TotalQuantity()
	plural := ""
	if count > 1 {
		plural = "s"
	}
	message := fmt.Sprintf("🔔 New Order %s! %d item%s - ₹%.2f", string(id), count, plural, o.BillAmount)
	if o.CustomerName != "" {
		message += " from " + o.CustomerName
	}
	return message
}
