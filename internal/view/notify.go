package view

import "log"

// Notifier surfaces a rejected move to the user.
type Notifier interface {
	NotifyFailure(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// NotifyFailure calls f(message).
func (f NotifierFunc) NotifyFailure(message string) { f(message) }

// LogNotifier prints rejections with the standard logger. Used when no
// interactive surface is attached.
type LogNotifier struct{}

// NotifyFailure logs the message.
func (LogNotifier) NotifyFailure(message string) {
	log.Printf("move rejected: %s", message)
}
