package example

type AccountRole string

const (
	AccountRoleAdmin      AccountRole = "admin"
	AccountRoleTeamMember AccountRole = "team_member"
)

type InvitationStatus string

const (
	InvitationStatusPending InvitationStatus = "pending"
)

type Account struct {
	Email string
	Role  AccountRole
}

type Invitation struct {
	Status InvitationStatus
}

func bad() {
	a := &Account{}
	a.Role = "team-member" // want "enum field Role assigned string literal"

	inv := &Invitation{}
	inv.Status = "pending" // want "enum field Status assigned string literal"

	_ = Account{Email: "a@x.com", Role: "admin"} // want "enum field Role assigned string literal"
}

func good() {
	a := &Account{}
	a.Role = AccountRoleTeamMember
	a.Email = "a@x.com"

	inv := &Invitation{}
	inv.Status = InvitationStatusPending

	_ = Account{Email: "a@x.com", Role: AccountRoleAdmin}
}

func alsoGood() {
	// Variable, not literal
	role := AccountRoleAdmin
	a := &Account{Role: role}
	_ = a
}
