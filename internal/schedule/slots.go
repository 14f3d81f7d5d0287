// Package schedule lists the pickup slots offered for cash payments.
package schedule

import "fmt"

// Weekdays on which cash pickups happen, in listing order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// First and last pickup hour (inclusive).
const (
	FirstHour = 9
	LastHour  = 16
)

// AvailableSlots returns every "<Day> - <H>:00" slot, days first, then hours.
func AvailableSlots() []string {
	slots := make([]string, 0, len(Weekdays)*(LastHour-FirstHour+1))
	for _, day := range Weekdays {
		for hour := FirstHour; hour <= LastHour; hour++ {
			slots = append(slots, fmt.Sprintf("%s - %d:00", day, hour))
		}
	}
	return slots
}

// IsSlot reports whether s is one of the available slots.
func IsSlot(s string) bool {
	for _, slot := range AvailableSlots() {
		if slot == s {
			return true
		}
	}
	return false
}
