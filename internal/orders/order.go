package orders

import (
	"strings"
	"time"
)

// Status is the normalized delivery status of an order.
type Status string

const (
	StatusPending            Status = "Pending"
	StatusAccepted           Status = "Accepted"
	StatusRejected           Status = "Rejected"
	StatusPreparing          Status = "Preparing"
	StatusReady              Status = "Ready"
	StatusDeliveryInProgress Status = "Delivery in Progress"
	StatusCompleted          Status = "Completed"
	StatusCancelled          Status = "Cancelled"
)

// Statuses lists the values an operator may assign.
func Statuses() []Status {
	return []Status{
		StatusPending,
		StatusAccepted,
		StatusRejected,
		StatusPreparing,
		StatusReady,
		StatusDeliveryInProgress,
		StatusCompleted,
	}
}

// LookupStatus matches an operator-supplied status name exactly, ignoring
// case. Unlike ParseStatus it never falls back to StatusPending.
func LookupStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	for _, s := range append(Statuses(), StatusCancelled) {
		if strings.EqualFold(string(s), raw) {
			return s, true
		}
	}
	return "", false
}

// ParseStatus maps a backend status string onto a Status. Matching is by
// substring and ordered, so "Out for delivery" lands on StatusDeliveryInProgress
// before the completed rule sees "deliver".
func ParseStatus(raw string) Status {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "accept"):
		return StatusAccepted
	case strings.Contains(lower, "reject"):
		return StatusRejected
	case strings.Contains(lower, "prepar"):
		return StatusPreparing
	case strings.Contains(lower, "ready"):
		return StatusReady
	case strings.Contains(lower, "delivery"), strings.Contains(lower, "progress"):
		return StatusDeliveryInProgress
	case strings.Contains(lower, "complete"), strings.Contains(lower, "deliver"):
		return StatusCompleted
	case strings.Contains(lower, "cancel"):
		return StatusCancelled
	default:
		return StatusPending
	}
}

// IsHistory reports whether the order has reached a terminal status.
func (s Status) IsHistory() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// IsOngoing reports whether the order still needs attention.
func (s Status) IsOngoing() bool {
	return !s.IsHistory()
}

// Address is the delivery address attached to an order.
type Address struct {
	AddressID     string `json:"addressId"`
	Details       string `json:"addressDetails"`
	Type          string `json:"addressType"`
	ReceiverPhone string `json:"receiverPhoneNumber"`
	ReceiverName  string `json:"receiverName"`
	LatLong       string `json:"latlong,omitempty"`
	IsChosen      bool   `json:"isChosen"`
	IsDefault     bool   `json:"isDefault"`
}

// Item is one order line.
type Item struct {
	MenuID   string   `json:"menuId"`
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Price    *float64 `json:"price,omitempty"`
	Subtotal float64  `json:"subtotal"`
}

// Order is the normalized order the alerting core reads. Orders are treated
// as read-only once mapped.
type Order struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	RestaurantID     string    `json:"restaurantId"`
	Items            []Item    `json:"orderItems"`
	Status           Status    `json:"deliveryStatus"`
	BillAmount       float64   `json:"billAmount"`
	PaymentMode      string    `json:"paymentMode"`
	IsPaymentSuccess bool      `json:"isPaymentSuccess"`
	OrderDate        time.Time `json:"orderDate"`
	Address          *Address  `json:"addressDetails,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	CustomerName     string    `json:"customerName,omitempty"`
	CustomerPhone    string    `json:"customerPhone,omitempty"`
}

// TotalQuantity sums item quantities.
func (o Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// apiItem and apiOrder mirror the backend's JSON documents.
type apiItem struct {
	MenuID   string   `json:"menuId"`
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Price    *float64 `json:"price"`
	ID       string   `json:"_id,omitempty"`
}

type apiOrder struct {
	ID               string    `json:"_id"`
	UserID           string    `json:"userId"`
	RestaurantID     string    `json:"restaurantId"`
	OrderItems       []apiItem `json:"orderItems"`
	DeliveryStatus   string    `json:"deliveryStatus"`
	BillAmount       float64   `json:"billAmount"`
	PaymentMode      string    `json:"paymentMode"`
	IsPaymentSuccess bool      `json:"isPaymentSuccess"`
	OrderDate        string    `json:"orderDate"`
	AddressDetails   *Address  `json:"addressDetails"`
	CreatedAt        string    `json:"createdAt"`
	UpdatedAt        string    `json:"updatedAt"`
}

func (a apiOrder) toOrder() Order {
	items := make([]Item, 0, len(a.OrderItems))
	for _, item := range a.OrderItems {
		subtotal := 0.0
		if item.Price != nil && *item.Price != 0 {
			subtotal = *item.Price * float64(item.Quantity)
		}
		items = append(items, Item{
			MenuID:   item.MenuID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Subtotal: subtotal,
		})
	}
	order := Order{
		ID:               a.ID,
		UserID:           a.UserID,
		RestaurantID:     a.RestaurantID,
		Items:            items,
		Status:           ParseStatus(a.DeliveryStatus),
		BillAmount:       a.BillAmount,
		PaymentMode:      a.PaymentMode,
		IsPaymentSuccess: a.IsPaymentSuccess,
		OrderDate:        parseTime(a.OrderDate),
		Address:          a.AddressDetails,
		CreatedAt:        parseTime(a.CreatedAt),
		UpdatedAt:        parseTime(a.UpdatedAt),
	}
	if a.AddressDetails != nil {
		order.CustomerName = strings.TrimSpace(a.AddressDetails.ReceiverName)
		order.CustomerPhone = strings.TrimSpace(a.AddressDetails.ReceiverPhone)
	}
	return order
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// TestOrder returns the fixed order used by test notifications.
func TestOrder(now time.Time) Order {
	price := 100.0
	return Order{
		ID:           "TEST123456",
		UserID:       "test-user",
		RestaurantID: "test-restaurant",
		Items: []Item{{
			MenuID:   "test-menu",
			Name:     "Test Item",
			Quantity: 2,
			Price:    &price,
			Subtotal: 200,
		}},
		Status:        StatusPending,
		BillAmount:    200,
		PaymentMode:   "COD",
		OrderDate:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
		CustomerName:  "Test Customer",
		CustomerPhone: "1234567890",
	}
}
