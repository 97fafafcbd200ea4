package model

import "slices"

// Tenant is a top-level organizational unit owning equips and threads
type Tenant struct {
	ID          ID             `json:"id" bson:"_id"`
	Description string         `json:"description" bson:"Description"`
	Equips      []TenantEquip  `json:"equips" bson:"Equips"`
	Threads     []TenantThread `json:"threads" bson:"Threads"`
}

// TenantEquip is a team within a tenant, gated by an e-mail allow-list
type TenantEquip struct {
	ID          ID       `json:"id" bson:"_id"`
	Description string   `json:"description" bson:"Description"`
	AllowEmails []string `json:"allowEmails" bson:"AllowEmails"`
}

// TenantThread is a named channel within a tenant
type TenantThread struct {
	ID          ID     `json:"id" bson:"_id"`
	Description string `json:"description" bson:"Description"`
}

// NewTenant creates a tenant without equips or threads
func NewTenant(description string) *Tenant {
	return &Tenant{
		ID:          NewID(),
		Description: description,
		Equips:      []TenantEquip{},
		Threads:     []TenantThread{},
	}
}

// NewTenantEquip creates an equip with an empty allow-list
func NewTenantEquip(description string, allowEmails ...string) TenantEquip {
	emails := make([]string, 0, len(allowEmails))
	emails = append(emails, allowEmails...)

	return TenantEquip{
		ID:          NewID(),
		Description: description,
		AllowEmails: emails,
	}
}

// NewTenantThread creates a thread
func NewTenantThread(description string) TenantThread {
	return TenantThread{
		ID:          NewID(),
		Description: description,
	}
}

// AddEquip appends an equip
func (t *Tenant) AddEquip(e TenantEquip) {
	t.Equips = append(t.Equips, e)
}

// AddThread appends a thread
func (t *Tenant) AddThread(th TenantThread) {
	t.Threads = append(t.Threads, th)
}

// HasMember reports whether any equip lists email
func (t *Tenant) HasMember(email string) bool {
	for _, e := range t.Equips {
		if e.Allows(email) {
			return true
		}
	}
	return false
}

// EquipAllows reports whether the equip with the given id lists email
func (t *Tenant) EquipAllows(equipID ID, email string) bool {
	for _, e := range t.Equips {
		if e.ID == equipID && e.Allows(email) {
			return true
		}
	}
	return false
}

// HasThread reports whether a thread with the given id exists
func (t *Tenant) HasThread(threadID ID) bool {
	return slices.ContainsFunc(t.Threads, func(th TenantThread) bool {
		return th.ID == threadID
	})
}

// Allows reports whether email is on the allow-list. Matching is exact.
func (e TenantEquip) Allows(email string) bool {
	return slices.Contains(e.AllowEmails, email)
}
