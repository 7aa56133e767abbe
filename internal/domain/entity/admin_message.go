package entity

import (
	"bytes"
	"encoding/json"
)

// Routing keys and queues of the admin user-lifecycle exchange.
const (
	UserExchange = "user.exchange"

	RoutingKeyUserCreated      = "user.created"
	RoutingKeyUserDeleted      = "user.deleted"
	RoutingKeyUserReset        = "user.reset"
	RoutingKeyBulkRegistration = "user.bulk_registration"

	QueueUser             = "user.queue"
	QueueBulkRegistration = "user.bulk_registration.queue"
)

// Requester identifies the admin who issued a queue command. On the wire it is either a
// bare user id or an object {"userId": "..."}.
type Requester struct {
	UserID string `json:"userId"`
}

func (r *Requester) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.UserID)
	}
	type plain Requester
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Requester(p)
	return nil
}

// CandidateUser is one entry of an admin provisioning request.
type CandidateUser struct {
	Username        string   `json:"username"`
	Name            string   `json:"name"`
	UserType        UserType `json:"userType"`
	GradYear        int      `json:"gradYear,omitempty"`
	AdmissionNumber string   `json:"admissionNumber,omitempty"`
}

// BulkRegistrationMessage asks for many accounts to be provisioned at once.
type BulkRegistrationMessage struct {
	Users       []CandidateUser `json:"users"`
	RequestedBy Requester       `json:"requestedBy"`
}

// CreateUserMessage provisions a single account.
type CreateUserMessage struct {
	User        CandidateUser `json:"user"`
	RequestedBy Requester     `json:"requestedBy"`
}

// UserCommandMessage targets one existing account (delete, reset).
type UserCommandMessage struct {
	UserID      string    `json:"userId"`
	RequestedBy Requester `json:"requestedBy"`
}

// RegisteredUser is a success entry of a bulk registration.
type RegisteredUser struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// FailedRegistration is a failure entry of a bulk registration.
type FailedRegistration struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Error    string `json:"error"`
}

// BulkRegistrationResult is the summary returned for a bulk registration message.
type BulkRegistrationResult struct {
	Successful []RegisteredUser     `json:"successful"`
	Failed     []FailedRegistration `json:"failed"`
	Error      string               `json:"error,omitempty"`
}

// CommandResult is the summary returned for create, delete and reset messages.
type CommandResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkErrorUnauthorized marks a bulk result rejected because the requester is not an admin.
const BulkErrorUnauthorized = "UNAUTHORIZED"
