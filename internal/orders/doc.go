// Package orders models restaurant orders as the backend reports them.
//
// It maps backend documents into Order values, normalizes free-form delivery
// status strings, talks to the order API over HTTP, and keeps the most recent
// successful snapshot in memory for status surfaces.
package orders
