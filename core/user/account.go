package user

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/uniasistencia/backend/core"
	"github.com/uniasistencia/backend/core/account"
	"github.com/uniasistencia/backend/core/administrator"
	"github.com/uniasistencia/backend/core/student"
	"github.com/uniasistencia/backend/core/teacher"
)

// Account is an account of any role. Exactly the field matching Role is set.
type Account struct {
	Role          account.Role
	Teacher       *teacher.Teacher
	Student       *student.Student
	Administrator *administrator.Administrator
}

func teacherAccount(t teacher.Teacher) Account { return Account{Role: account.RoleTeacher, Teacher: &t} }
func studentAccount(s student.Student) Account { return Account{Role: account.RoleStudent, Student: &s} }
func administratorAccount(a administrator.Administrator) Account {
	return Account{Role: account.RoleAdministrator, Administrator: &a}
}

func (a Account) ID() string {
	switch a.Role {
	case account.RoleTeacher:
		return a.Teacher.ID
	case account.RoleStudent:
		return a.Student.ID
	case account.RoleAdministrator:
		return a.Administrator.ID
	}
	return ""
}

func (a Account) Email() string {
	switch a.Role {
	case account.RoleTeacher:
		return a.Teacher.Email
	case account.RoleStudent:
		return a.Student.Email
	case account.RoleAdministrator:
		return a.Administrator.Email
	}
	return ""
}

func (a Account) Name() string {
	switch a.Role {
	case account.RoleTeacher:
		return a.Teacher.Name
	case account.RoleStudent:
		return a.Student.Name
	case account.RoleAdministrator:
		return a.Administrator.Name
	}
	return ""
}

func (a Account) Active() bool {
	switch a.Role {
	case account.RoleTeacher:
		return a.Teacher.Active
	case account.RoleStudent:
		return a.Student.Active
	case account.RoleAdministrator:
		return a.Administrator.Active
	}
	return false
}

// checkPassword fails for students, who have no credentials.
func (a Account) checkPassword(pwd string) error {
	switch a.Role {
	case account.RoleTeacher:
		return a.Teacher.CheckPassword(pwd)
	case account.RoleAdministrator:
		return a.Administrator.CheckPassword(pwd)
	}
	return account.ErrNoPassword
}

// Principal returns the identity carried by session tokens.
func (a Account) Principal() core.Principal {
	p := core.Principal{ID: a.ID(), Email: a.Email(), Name: a.Name(), Role: a.Role.String()}
	if a.Teacher != nil {
		p.Department = a.Teacher.Department
	}
	return p
}

// MarshalJSON renders the fields of the role's entity plus `role`.
func (a Account) MarshalJSON() ([]byte, error) {
	switch a.Role {
	case account.RoleTeacher:
		return json.Marshal(struct {
			*teacher.Teacher
			Role account.Role `json:"role"`
		}{a.Teacher, a.Role})
	case account.RoleStudent:
		return json.Marshal(struct {
			*student.Student
			Role account.Role `json:"role"`
		}{a.Student, a.Role})
	case account.RoleAdministrator:
		return json.Marshal(struct {
			*administrator.Administrator
			Role account.Role `json:"role"`
		}{a.Administrator, a.Role})
	}
	return []byte("null"), nil
}

// NewAccount creates an account of any role; fields not used by the role are ignored.
type NewAccount struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Active   *bool  `json:"active"`

	// teacher
	NationalID string `json:"national_id"`
	Department string `json:"department"`
	Specialty  string `json:"specialty"`

	// student
	StudentNumber string `json:"student_number"`
	Career        string `json:"career"`
	Semester      int    `json:"semester"`

	// administrator
	Position string `json:"position"`
}

func (na NewAccount) teacher() teacher.NewTeacher {
	return teacher.NewTeacher{
		NationalID: na.NationalID,
		Name:       na.Name,
		Email:      na.Email,
		Password:   na.Password,
		Department: na.Department,
		Specialty:  na.Specialty,
		Phone:      na.Phone,
		Active:     na.Active,
	}
}

func (na NewAccount) student() student.NewStudent {
	return student.NewStudent{
		Name:          na.Name,
		StudentNumber: na.StudentNumber,
		Email:         na.Email,
		Career:        na.Career,
		Semester:      na.Semester,
		Phone:         na.Phone,
		Active:        na.Active,
	}
}

func (na NewAccount) administrator() administrator.NewAdministrator {
	return administrator.NewAdministrator{
		Name:     na.Name,
		Email:    na.Email,
		Password: na.Password,
		Position: na.Position,
		Phone:    na.Phone,
		Active:   na.Active,
	}
}

// Validate checks the fields required by the account's role.
func (na *NewAccount) Validate(validate *validator.Validate) error {
	role, err := account.ParseRole(na.Role)
	if err != nil {
		return err
	}
	na.Role = role.String()

	switch role {
	case account.RoleTeacher:
		nt := na.teacher()
		err = nt.Validate(validate)
		na.Name, na.Email, na.NationalID, na.Department, na.Specialty, na.Phone =
			nt.Name, nt.Email, nt.NationalID, nt.Department, nt.Specialty, nt.Phone
	case account.RoleStudent:
		ns := na.student()
		err = ns.Validate(validate)
		na.Name, na.Email, na.StudentNumber, na.Career, na.Phone =
			ns.Name, ns.Email, ns.StudentNumber, ns.Career, ns.Phone
	case account.RoleAdministrator:
		nadm := na.administrator()
		err = nadm.Validate(validate)
		na.Name, na.Email, na.Position, na.Phone = nadm.Name, nadm.Email, nadm.Position, nadm.Phone
	}
	return err
}

// UpdateAccount only changes the fields that are set and used by the role.
type UpdateAccount struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Phone    *string `json:"phone"`
	Active   *bool   `json:"active"`

	NationalID *string `json:"national_id"`
	Department *string `json:"department"`
	Specialty  *string `json:"specialty"`

	StudentNumber *string `json:"student_number"`
	Career        *string `json:"career"`
	Semester      *int    `json:"semester"`

	Position *string `json:"position"`
}

func (ua UpdateAccount) teacher() teacher.UpdateTeacher {
	return teacher.UpdateTeacher{
		NationalID: ua.NationalID,
		Name:       ua.Name,
		Email:      ua.Email,
		Password:   ua.Password,
		Department: ua.Department,
		Specialty:  ua.Specialty,
		Phone:      ua.Phone,
		Active:     ua.Active,
	}
}

func (ua UpdateAccount) student() student.UpdateStudent {
	return student.UpdateStudent{
		Name:          ua.Name,
		StudentNumber: ua.StudentNumber,
		Email:         ua.Email,
		Career:        ua.Career,
		Semester:      ua.Semester,
		Phone:         ua.Phone,
		Active:        ua.Active,
	}
}

func (ua UpdateAccount) administrator() administrator.UpdateAdministrator {
	return administrator.UpdateAdministrator{
		Name:     ua.Name,
		Email:    ua.Email,
		Password: ua.Password,
		Position: ua.Position,
		Phone:    ua.Phone,
		Active:   ua.Active,
	}
}

// Validate checks ua against the rules of role. Pointed values are cleaned in place.
func (ua *UpdateAccount) Validate(validate *validator.Validate, role account.Role) error {
	switch role {
	case account.RoleTeacher:
		ut := ua.teacher()
		return ut.Validate(validate)
	case account.RoleStudent:
		us := ua.student()
		return us.Validate(validate)
	case account.RoleAdministrator:
		uadm := ua.administrator()
		return uadm.Validate(validate)
	}
	return core.NewBadRequestError("invalid role")
}
