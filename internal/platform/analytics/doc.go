// Package analytics delivers productivity reports to the analytics service.
package analytics
