package identity

import "time"

// User maps to the users table. full_name, dob and conditions are PHI and
// are stored encrypted when a PHI key is configured.
type User struct {
	Username           string     `db:"username" json:"username"`
	PasswordHash       string     `db:"password" json:"-"`
	PINHash            string     `db:"pin" json:"-"`
	Role               string     `db:"role" json:"role"`
	FullName           string     `db:"full_name" json:"full_name"`
	DOB                string     `db:"dob" json:"dob"`
	Conditions         string     `db:"conditions" json:"conditions"`
	Email              string     `db:"email" json:"email"`
	Phone              string     `db:"phone" json:"phone"`
	Country            string     `db:"country" json:"country"`
	Area               string     `db:"area" json:"area"`
	Postcode           string     `db:"postcode" json:"postcode"`
	NHSNumber          string     `db:"nhs_number" json:"nhs_number"`
	ClinicianID        string     `db:"clinician_id" json:"clinician_id"`
	ProfessionalID     string     `db:"professional_id" json:"professional_id"`
	DisclaimerAccepted bool       `db:"disclaimer_accepted" json:"disclaimer_accepted"`
	LastLogin          *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	PIN            string `json:"pin"`
	Role           string `json:"role"`
	FullName       string `json:"full_name"`
	DOB            string `json:"dob"`
	Conditions     string `json:"conditions"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Country        string `json:"country"`
	Area           string `json:"area"`
	Postcode       string `json:"postcode"`
	NHSNumber      string `json:"nhs_number"`
	ClinicianID    string `json:"clinician_id"`
	ProfessionalID string `json:"professional_id"`
}

// ProfileUpdate holds the fields PUT /api/profile may change. Nil fields are
// left as stored.
type ProfileUpdate struct {
	FullName           *string `json:"full_name"`
	DOB                *string `json:"dob"`
	Conditions         *string `json:"conditions"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	Country            *string `json:"country"`
	Area               *string `json:"area"`
	Postcode           *string `json:"postcode"`
	NHSNumber          *string `json:"nhs_number"`
	DisclaimerAccepted *bool   `json:"disclaimer_accepted"`
}

func (p *ProfileUpdate) apply(u *User) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&u.FullName, p.FullName)
	set(&u.DOB, p.DOB)
	set(&u.Conditions, p.Conditions)
	set(&u.Email, p.Email)
	set(&u.Phone, p.Phone)
	set(&u.Country, p.Country)
	set(&u.Area, p.Area)
	set(&u.Postcode, p.Postcode)
	set(&u.NHSNumber, p.NHSNumber)
	if p.DisclaimerAccepted != nil {
		u.DisclaimerAccepted = *p.DisclaimerAccepted
	}
}

// Session is the result of a successful login.
type Session struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
