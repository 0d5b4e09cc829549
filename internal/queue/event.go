// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into outgoing email.
package queue

// emailQueueName is the durable queue carrying confirmation-mail requests.
const emailQueueName = "email.confirm"

// UserRegisteredEvent is published when a user signs up or re-requests a
// confirmation email. It carries enough information for the consumer to
// send the mail without querying the primary database.
type UserRegisteredEvent struct {
	UserID   uint64 `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	BaseURL  string `json:"base_url"`
}
