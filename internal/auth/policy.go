package auth

import "strings"

type Role string

const (
	RoleAdmin               Role = "ADMIN"
	RolePresident           Role = "PRESIDENT"
	RoleSecretaryGeneral    Role = "SECRETARY_GENERAL"
	RoleTreasurer           Role = "TREASURER"
	RoleCommissioner        Role = "COMMISSIONER"
	RoleGeneralMeansManager Role = "GENERAL_MEANS_MANAGER"
	RolePlayer              Role = "PLAYER"
	RoleFormerPlayer        Role = "FORMER_PLAYER"
	RoleSupporter           Role = "SUPPORTER"
)

var AllRoles = []Role{
	RoleAdmin, RolePresident, RoleSecretaryGeneral, RoleTreasurer, RoleCommissioner,
	RoleGeneralMeansManager, RolePlayer, RoleFormerPlayer, RoleSupporter,
}

// BureauRoles are the club officers.
var BureauRoles = []Role{
	RoleAdmin, RolePresident, RoleSecretaryGeneral, RoleTreasurer, RoleCommissioner, RoleGeneralMeansManager,
}

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllRoles {
		if r == known {
			return r, true
		}
	}
	return "", false
}

type Action string

const (
	ActionViewCaisse           Action = "caisse.view"
	ActionManageCashBoxes      Action = "caisse.boxes.manage"
	ActionCreateExpense        Action = "caisse.expense.create"
	ActionCreateTransfer       Action = "caisse.transfer.create"
	ActionValidateTreasurer    Action = "caisse.validate.treasurer"
	ActionValidateCommissioner Action = "caisse.validate.commissioner"
	ActionRecordPayment        Action = "contributions.payment.record"
	ActionManageContributions  Action = "contributions.manage"
	ActionViewArrears          Action = "contributions.arrears.view"
	ActionApplySuspensions     Action = "contributions.suspensions.apply"
	ActionViewHistory          Action = "contributions.history.view"
	ActionListMembers          Action = "members.list"
	ActionManageMembers        Action = "members.manage"
	ActionViewReports          Action = "reports.view"
	ActionCreateActivity       Action = "activities.create"
	ActionCreateAnnouncement   Action = "activities.announcement.create"
	ActionSendReminders        Action = "notifications.remind"
)

// Policy is the (action, role) allow table. Anything absent is denied, except
// ADMIN which is allowed everything.
type Policy struct {
	rules map[Action]map[Role]struct{}
}

func NewPolicy(rules map[Action][]Role) *Policy {
	p := &Policy{rules: make(map[Action]map[Role]struct{}, len(rules))}
	for action, roles := range rules {
		set := make(map[Role]struct{}, len(roles))
		for _, r := range roles {
			set[r] = struct{}{}
		}
		p.rules[action] = set
	}
	return p
}

func DefaultPolicy() *Policy {
	caisse := []Role{RoleTreasurer, RoleCommissioner}
	return NewPolicy(map[Action][]Role{
		ActionViewCaisse:           caisse,
		ActionManageCashBoxes:      {RoleTreasurer},
		ActionCreateExpense:        {RoleTreasurer},
		ActionCreateTransfer:       {},
		ActionValidateTreasurer:    {RoleTreasurer},
		ActionValidateCommissioner: {RoleCommissioner},
		ActionRecordPayment:        {RoleTreasurer},
		ActionManageContributions:  {RoleTreasurer},
		ActionViewArrears:          {RolePresident, RoleSecretaryGeneral, RoleTreasurer, RoleCommissioner},
		ActionApplySuspensions:     {},
		ActionViewHistory:          {RolePresident, RoleSecretaryGeneral, RoleTreasurer, RoleCommissioner},
		ActionListMembers:          BureauRoles,
		ActionManageMembers:        {},
		ActionViewReports:          {RolePresident, RoleSecretaryGeneral, RoleTreasurer, RoleCommissioner},
		ActionCreateActivity:       {RolePresident, RoleSecretaryGeneral, RoleGeneralMeansManager},
		ActionCreateAnnouncement:   {RolePresident, RoleSecretaryGeneral},
		ActionSendReminders:        {RoleTreasurer, RoleSecretaryGeneral},
	})
}

func (p *Policy) Can(role Role, action Action) bool {
	if role == RoleAdmin {
		return true
	}
	_, ok := p.rules[action][role]
	return ok
}

// CanAny reports whether role holds at least one of the actions.
func (p *Policy) CanAny(role Role, actions ...Action) bool {
	for _, a := range actions {
		if p.Can(role, a) {
			return true
		}
	}
	return false
}

// Holders lists the roles allowed to perform action, ADMIN first.
func (p *Policy) Holders(action Action) []Role {
	out := []Role{RoleAdmin}
	for _, r := range AllRoles {
		if r == RoleAdmin {
			continue
		}
		if _, ok := p.rules[action][r]; ok {
			out = append(out, r)
		}
	}
	return out
}
