package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// PollerStatus summarizes the order poller.
type PollerStatus struct {
	State       string `json:"state"`
	Initialized bool   `json:"initialized"`
	KnownOrders int    `json:"knownOrders"`
	NewOrders   int    `json:"newOrders"`
	Ticks       int64  `json:"ticks"`
	LastPollAt  string `json:"lastPollAt,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool         `json:"running"`
	PID           int          `json:"pid"`
	Poller        PollerStatus `json:"poller"`
	Visible       bool         `json:"visible"`
	PendingCount  int          `json:"pendingCount"`
	AlertsEmitted int64        `json:"alertsEmitted"`
	AudioCycles   int64        `json:"audioCycles"`
	AudioReady    bool         `json:"audioReady"`
	ActiveToasts  int          `json:"activeToasts"`
	LockFilePath  string       `json:"lockFilePath"`
	HistoryDriver string       `json:"historyDriver"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	Name     string   `json:"name"`
	Quantity int      `json:"quantity"`
	Price    *float64 `json:"price,omitempty"`
	Subtotal float64  `json:"subtotal"`
}

// Order describes an order in a transport-friendly format.
type Order struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	StatusLabel   string      `json:"statusLabel"`
	BillAmount    float64     `json:"billAmount"`
	AmountLabel   string      `json:"amountLabel"`
	PaymentMode   string      `json:"paymentMode,omitempty"`
	Paid          bool        `json:"paid"`
	CustomerName  string      `json:"customerName,omitempty"`
	CustomerPhone string      `json:"customerPhone,omitempty"`
	ItemCount     int         `json:"itemCount"`
	Items         []OrderItem `json:"items"`
	OrderDate     string      `json:"orderDate,omitempty"`
	CreatedAt     string      `json:"createdAt,omitempty"`
}

// OrderListResponse wraps the last order snapshot.
type OrderListResponse struct {
	Orders    []Order `json:"orders"`
	FetchedAt string  `json:"fetchedAt,omitempty"`
}

// OrderStatusRequest updates the delivery status of an order.
type OrderStatusRequest struct {
	Status string `json:"status"`
}

// Toast describes an active alert.
type Toast struct {
	ID          string `json:"id"`
	OrderID     string `json:"orderId,omitempty"`
	Message     string `json:"message"`
	ActionLabel string `json:"actionLabel,omitempty"`
	Link        string `json:"link,omitempty"`
	Severity    string `json:"severity"`
	CreatedAt   string `json:"createdAt,omitempty"`
	ExpiresAt   string `json:"expiresAt,omitempty"`
}

// ToastListResponse wraps active toasts.
type ToastListResponse struct {
	Toasts []Toast `json:"toasts"`
}

// HistoryEntry is one recorded alert.
type HistoryEntry struct {
	ID        int64   `json:"id"`
	OrderID   string  `json:"orderId"`
	Message   string  `json:"message"`
	Amount    float64 `json:"amount"`
	ItemCount int     `json:"itemCount"`
	Customer  string  `json:"customer,omitempty"`
	Delayed   bool    `json:"delayed"`
	Source    string  `json:"source"`
	CreatedAt string  `json:"createdAt,omitempty"`
}

// HistoryResponse wraps recorded alerts, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// NavigationRequest is a pending request to open an order.
type NavigationRequest struct {
	OrderID     string `json:"orderId"`
	URL         string `json:"url"`
	RequestedAt string `json:"requestedAt,omitempty"`
}

// NavigationResponse wraps drained navigation requests.
type NavigationResponse struct {
	Requests []NavigationRequest `json:"requests"`
}

// VisibilityRequest reports the operator surface visibility.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// VisibilityResponse reports the visibility after the change.
type VisibilityResponse struct {
	Visible bool `json:"visible"`
	Changed bool `json:"changed"`
}

// ResetResponse reports the outcome of a counter or session reset.
type ResetResponse struct {
	Dropped int  `json:"dropped"`
	Session bool `json:"session"`
}

// TestNotificationResponse reports the outcome of a test alert.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// AudioResponse reports the bell player state after a preload or test.
type AudioResponse struct {
	Ready  bool   `json:"ready"`
	Player string `json:"player,omitempty"`
	Error  string `json:"error,omitempty"`
}
