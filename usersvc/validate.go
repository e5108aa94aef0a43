package usersvc

import (
	"github.com/ichigozero/taskmgr/authsvc"
	"github.com/ichigozero/taskmgr/validate"
)

const MinPasswordLength = 6

// ParseRegistration validates a registration body. Role defaults to user.
func ParseRegistration(body []byte) (Registration, error) {
	f, err := validate.Object(body)
	if err != nil {
		return Registration{}, err
	}

	var vs validate.Violations
	email := f.String("email", &vs)
	password := f.String("password", &vs)
	role := f.String("role", &vs)

	checkEmail(email, true, &vs)
	checkPassword(password, true, &vs)

	r := Registration{Role: DefaultRole}
	if role != nil {
		if authsvc.Role(*role).Valid() {
			r.Role = authsvc.Role(*role)
		} else {
			vs.Add("role must be one of [user, admin]")
		}
	}

	if err := vs.Err(); err != nil {
		return Registration{}, err
	}

	r.Email, r.Password = *email, *password
	return r, nil
}

// ParseCredentials validates a login body. No minimum password length is
// enforced at login.
func ParseCredentials(body []byte) (Credentials, error) {
	f, err := validate.Object(body)
	if err != nil {
		return Credentials{}, err
	}

	var vs validate.Violations
	email := f.String("email", &vs)
	password := f.String("password", &vs)

	checkEmail(email, true, &vs)
	if password == nil || *password == "" {
		vs.Add("password is required")
	}

	if err := vs.Err(); err != nil {
		return Credentials{}, err
	}
	return Credentials{Email: *email, Password: *password}, nil
}

// ParseProfilePatch requires at least one of email or password.
func ParseProfilePatch(body []byte) (ProfilePatch, error) {
	f, err := validate.Object(body)
	if err != nil {
		return ProfilePatch{}, err
	}

	var vs validate.Violations
	if !f.Has("email", "password") {
		vs.Add("at least one of email or password must be provided")
		return ProfilePatch{}, vs.Err()
	}

	p := ProfilePatch{
		Email:    f.String("email", &vs),
		Password: f.String("password", &vs),
	}
	checkEmail(p.Email, false, &vs)
	checkPassword(p.Password, false, &vs)

	if err := vs.Err(); err != nil {
		return ProfilePatch{}, err
	}
	return p, nil
}

func checkEmail(email *string, required bool, vs *validate.Violations) {
	switch {
	case email == nil:
		if required {
			vs.Add("email is required")
		}
	case *email == "":
		vs.Add("email is required")
	case !validate.Email(*email):
		vs.Add("email must be a valid email")
	}
}

func checkPassword(password *string, required bool, vs *validate.Violations) {
	switch {
	case password == nil:
		if required {
			vs.Add("password is required")
		}
	case *password == "":
		vs.Add("password is required")
	case len([]rune(*password)) < MinPasswordLength:
		vs.Add("password must be at least 6 characters long")
	}
}
