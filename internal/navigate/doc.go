// Package navigate records requests to open an order's detail view. Toast
// actions call GoToOrder; the operator UI drains the feed over the HTTP API.
package navigate
