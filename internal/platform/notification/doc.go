// Package notification delivers task emails through the notification
// service's HTTP API.
package notification
