package syncclient

import (
	"slices"

	"github.com/dmitrymomot/notifystream/pkg/notifications"
)

// transform returns the new item list. Inputs are private copies and may be
// modified in place.
type transform func(items []notifications.Notification) []notifications.Notification

func addIfAbsent(n notifications.Notification) transform {
	return func(items []notifications.Notification) []notifications.Notification {
		if slices.ContainsFunc(items, byID(n.ID)) {
			return items
		}
		return append([]notifications.Notification{n}, items...)
	}
}

func setRead(id int64) transform {
	return func(items []notifications.Notification) []notifications.Notification {
		if i := slices.IndexFunc(items, byID(id)); i >= 0 {
			items[i].Read = true
		}
		return items
	}
}

func setAllRead(items []notifications.Notification) []notifications.Notification {
	for i := range items {
		items[i].Read = true
	}
	return items
}

func removeByID(id int64) transform {
	return func(items []notifications.Notification) []notifications.Notification {
		return slices.DeleteFunc(items, byID(id))
	}
}

func removeRead(items []notifications.Notification) []notifications.Notification {
	return slices.DeleteFunc(items, func(n notifications.Notification) bool { return n.Read })
}

func byID(id int64) func(notifications.Notification) bool {
	return func(n notifications.Notification) bool { return n.ID == id }
}
