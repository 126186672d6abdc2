package model

type DeletionAction string

const (
	// DeletionActionDelete removes matching rows.
	DeletionActionDelete DeletionAction = "delete"
	// DeletionActionReassign moves matching rows to a successor account.
	DeletionActionReassign DeletionAction = "reassign"
)

// DeletionStep removes (or reassigns) the rows of one table that reference the
// account through any of Columns. Only a Terminal step's failure aborts a deletion.
type DeletionStep struct {
	Name     string
	Table    string
	Columns  []string
	Action   DeletionAction
	Terminal bool
}

// DefaultDeletionPlan lists every table referencing an account, children before
// parents, ending with the account row itself. Memberships go with the account
// row through ON DELETE CASCADE; role assignments and the invitation audit log
// are history and are kept.
func DefaultDeletionPlan() []DeletionStep {
	return []DeletionStep{
		{Name: "audit_logs", Table: "audit_logs", Columns: []string{"user_id"}, Action: DeletionActionDelete},
		{Name: "notifications", Table: "notifications", Columns: []string{"user_id"}, Action: DeletionActionDelete},
		{Name: "support_ticket_messages", Table: "support_ticket_messages", Columns: []string{"sender_id"}, Action: DeletionActionDelete},
		{Name: "support_tickets", Table: "support_tickets", Columns: []string{"user_id"}, Action: DeletionActionDelete},
		{Name: "design_comments", Table: "design_comments", Columns: []string{"author_id"}, Action: DeletionActionDelete},
		{Name: "designs", Table: "designs", Columns: []string{"uploaded_by"}, Action: DeletionActionDelete},
		{Name: "tasks", Table: "tasks", Columns: []string{"created_by", "assigned_to"}, Action: DeletionActionDelete},
		{Name: "assets", Table: "assets", Columns: []string{"owner_id", "uploaded_by"}, Action: DeletionActionDelete},
		{Name: "project_comments", Table: "project_comments", Columns: []string{"author_id"}, Action: DeletionActionDelete},
		{Name: "form_submissions", Table: "form_submissions", Columns: []string{"reviewed_by"}, Action: DeletionActionDelete},
		{Name: "onboarding_forms", Table: "onboarding_forms", Columns: []string{"owner_id", "created_by"}, Action: DeletionActionDelete},
		{Name: "messages", Table: "messages", Columns: []string{"sender_id"}, Action: DeletionActionDelete},
		{Name: "direct_messages", Table: "direct_messages", Columns: []string{"sender_id"}, Action: DeletionActionDelete},
		{Name: "team_messages", Table: "team_messages", Columns: []string{"sender_id", "recipient_id"}, Action: DeletionActionDelete},
		{Name: "project_team_members", Table: "project_team_members", Columns: []string{"user_id", "assigned_by"}, Action: DeletionActionDelete},
		{Name: "user_collaborations", Table: "user_collaborations", Columns: []string{"user_id", "collaborator_id"}, Action: DeletionActionDelete},
		{Name: "invitations", Table: "invitations", Columns: []string{"invited_by"}, Action: DeletionActionDelete},
		{Name: ProjectsStep, Table: "projects", Columns: []string{"owner_id"}, Action: DeletionActionDelete},
		{Name: "clients", Table: "clients", Columns: []string{"created_by"}, Action: DeletionActionDelete},
		{Name: AccountStep, Table: "accounts", Columns: []string{"id"}, Action: DeletionActionDelete, Terminal: true},
	}
}

const (
	ProjectsStep = "projects"
	AccountStep  = "accounts"
)
