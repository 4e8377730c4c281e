package api

import (
	"time"

	"orderbell/internal/history"
	"orderbell/internal/navigate"
	"orderbell/internal/orders"
	"orderbell/internal/poller"
	"orderbell/internal/toast"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromPollerStats converts poller stats to the API representation.
func FromPollerStats(stats poller.Stats) PollerStatus {
	return PollerStatus{
		State:       string(stats.State),
		Initialized: stats.Initialized,
		KnownOrders: stats.KnownOrders,
		NewOrders:   stats.NewOrders,
		Ticks:       stats.Ticks,
		LastPollAt:  formatTime(stats.LastPollAt),
		LastError:   stats.LastError,
	}
}

// FromOrder converts an order to its API representation.
func FromOrder(order orders.Order) Order {
	dto := Order{
		ID:            order.ID,
		Status:        string(order.Status),
		StatusLabel:   orders.DisplayStatus(order.Status),
		BillAmount:    order.BillAmount,
		AmountLabel:   orders.FormatAmount(order.BillAmount),
		PaymentMode:   order.PaymentMode,
		Paid:          order.IsPaymentSuccess,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		ItemCount:     order.TotalQuantity(),
		Items:         make([]OrderItem, 0, len(order.Items)),
		OrderDate:     formatTime(order.OrderDate),
		CreatedAt:     formatTime(order.CreatedAt),
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Subtotal: item.Subtotal,
		})
	}
	return dto
}

// FromOrders converts an order list, keeping its order.
func FromOrders(list []orders.Order) []Order {
	out := make([]Order, 0, len(list))
	for _, order := range list {
		out = append(out, FromOrder(order))
	}
	return out
}

// NewOrderListResponse wraps a snapshot and the time it was fetched.
func NewOrderListResponse(list []orders.Order, fetchedAt time.Time) OrderListResponse {
	return OrderListResponse{Orders: FromOrders(list), FetchedAt: formatTime(fetchedAt)}
}

// FromToasts converts active toasts.
func FromToasts(list []toast.Toast) []Toast {
	out := make([]Toast, 0, len(list))
	for _, t := range list {
		out = append(out, Toast{
			ID:          t.ID,
			OrderID:     t.OrderID,
			Message:     t.Message,
			ActionLabel: t.ActionLabel,
			Link:        t.Link,
			Severity:    string(t.Severity),
			CreatedAt:   formatTime(t.CreatedAt),
			ExpiresAt:   formatTime(t.ExpiresAt),
		})
	}
	return out
}

// FromHistory converts recorded alerts.
func FromHistory(entries []history.Entry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, HistoryEntry{
			ID:        e.ID,
			OrderID:   e.OrderID,
			Message:   e.Message,
			Amount:    e.Amount,
			ItemCount: e.ItemCount,
			Customer:  e.Customer,
			Delayed:   e.Delayed,
			Source:    string(e.Source),
			CreatedAt: formatTime(e.CreatedAt),
		})
	}
	return out
}

// FromNavigation converts drained navigation requests.
func FromNavigation(requests []navigate.Request) []NavigationRequest {
	out := make([]NavigationRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, NavigationRequest{
			OrderID:     r.OrderID,
			URL:         r.URL,
			RequestedAt: formatTime(r.RequestedAt),
		})
	}
	return out
}

// ParseTime reverses the API timestamp format. Empty or malformed values
// return the zero time.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
