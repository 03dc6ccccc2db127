package directory

import "context"

// Kind tags which client class a summary came from.
type Kind string

const (
	// KindLead is a prospect without credentials.
	KindLead Kind = "lead"
	// KindCredentialed is a registered account holder.
	KindCredentialed Kind = "credentialed"
)

// ClientSummary is the merged projection of the two client classes. The two
// underlying record types are resolved into this one shape at the directory
// boundary, never inside the order aggregate.
type ClientSummary struct {
	ID           string
	Kind         Kind
	Name         string
	Email        string
	Phone        string
	PostalCode   string
	Street       string
	Number       string
	Neighborhood string
	City         string
	State        string
}

// Repository searches both client classes and returns merged summaries.
type Repository interface {
	SearchClients(ctx context.Context, term string) ([]ClientSummary, error)
}
