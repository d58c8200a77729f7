// File: services/concierge/notifier.go
package concierge

// Notifier receives UI notifications for a turn. It is only invoked after the
// turn's state mutation (if any) has been committed.
type Notifier interface {
	RefreshDestinations()
	RefreshItinerary(city string)
	PostChat(role, text string)
}
