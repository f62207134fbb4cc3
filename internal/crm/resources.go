// Package crm defines the lifecycle rules that keep this CRM's records
// consistent: denormalized counters, derived image fields, audit log
// entries, and the account-level custom operations.
package crm

// Resource names the dispatcher and handlers agree on.
const (
	ResourceSales        = "sales"
	ResourceCompanies    = "companies"
	ResourceContacts     = "contacts"
	ResourceContactNotes = "contactNotes"
	ResourceTasks        = "tasks"
	ResourceDeals        = "deals"
	ResourceActivityLogs = "activityLogs"
)

// Resources lists every resource the service serves, in creation
// dependency order.
func Resources() []string {
	return []string{
		ResourceSales,
		ResourceCompanies,
		ResourceContacts,
		ResourceContactNotes,
		ResourceTasks,
		ResourceDeals,
		ResourceActivityLogs,
	}
}

// KnownResource reports whether name is one of the served resources.
func KnownResource(name string) bool {
	for _, r := range Resources() {
		if r == name {
			return true
		}
	}
	return false
}

// Activity log type tags.
const (
	ActivityCompanyCreated     = "company-created"
	ActivityContactCreated     = "contact-created"
	ActivityContactNoteCreated = "contact-note-created"
	ActivityDealCreated        = "deal-created"
)

// Task done_date transition classifications, carried from the before
// update hook to the after update hook through the call's meta.
const (
	transitionMetaKey = "done_date_transition"

	TransitionMarkedDone   = "marked-done"
	TransitionMarkedUndone = "marked-undone"
	TransitionUnchanged    = "unchanged"
)
