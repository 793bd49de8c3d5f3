package models

import "time"

// Student is the read-only student record consumed for outreach.
type Student struct {
	ID            string    `db:"id" json:"id"`
	FullName      string    `db:"full_name" json:"fullName"`
	Phone         *string   `db:"phone" json:"phone,omitempty"`
	GuardianPhone *string   `db:"guardian_phone" json:"guardianPhone,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ContactNumber returns the number outbound messages should target,
// preferring the student's own phone over the guardian's.
func (s *Student) ContactNumber() string {
	if s == nil {
		return ""
	}
	if s.Phone != nil && *s.Phone != "" {
		return *s.Phone
	}
	if s.GuardianPhone != nil && *s.GuardianPhone != "" {
		return *s.GuardianPhone
	}
	return ""
}
