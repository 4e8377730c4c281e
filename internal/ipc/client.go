package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Start requests the daemon to start polling.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.call("Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop polling.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reset clears the new-orders counter and queued alerts. With session set the
// known orders are forgotten as well.
func (c *Client) Reset(session bool) (*ResetResponse, error) {
	var resp ResetResponse
	method := "Reset"
	if session {
		method = "ResetSession"
	}
	if err := c.call(method, ResetRequest{Session: session}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Visibility reports the operator surface visibility.
func (c *Client) Visibility(visible bool) (*VisibilityResponse, error) {
	var resp VisibilityResponse
	if err := c.call("Visibility", VisibilityRequest{Visible: visible}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers the fixed test alert.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PreloadAudio prepares the bell player.
func (c *Client) PreloadAudio() (*AudioResponse, error) {
	var resp AudioResponse
	if err := c.call("PreloadAudio", AudioRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AudioTest plays the bell once.
func (c *Client) AudioTest() (*AudioResponse, error) {
	var resp AudioResponse
	if err := c.call("AudioTest", AudioRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History lists recorded alerts, newest first.
func (c *Client) History(limit int) (*HistoryResponse, error) {
	var resp HistoryResponse
	if err := c.call("History", HistoryRequest{Limit: limit}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Orders returns the last order snapshot narrowed by filter.
func (c *Client) Orders(filter string) (*OrdersResponse, error) {
	var resp OrdersResponse
	if err := c.call("Orders", OrdersRequest{Filter: filter}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetOrderStatus updates an order's delivery status.
func (c *Client) SetOrderStatus(id, status string) (*SetOrderStatusResponse, error) {
	var resp SetOrderStatusResponse
	if err := c.call("SetOrderStatus", SetOrderStatusRequest{ID: id, Status: status}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Toasts lists active toasts.
func (c *Client) Toasts() (*ToastsResponse, error) {
	var resp ToastsResponse
	if err := c.call("Toasts", ToastsRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
