package mail

import (
	"bytes"
	"fmt"
	htmltmpl "html/template"
	"net/mail"
	texttmpl "text/template"
	"time"
)

var (
	otpText = texttmpl.Must(texttmpl.New("otp").Parse(`Hello {{.Name}},

Your Schedulo password reset code for employee ID {{.EmployeeID}} is {{.OTP}}.
It expires in {{.Minutes}} minutes. If you did not request it, ignore this email.
`))
	otpHTML = htmltmpl.Must(htmltmpl.New("otp").Parse(`<p>Hello {{.Name}},</p>
<p>Your Schedulo password reset code for employee ID <strong>{{.EmployeeID}}</strong> is</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.OTP}}</strong></p>
<p>It expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>`))

	credentialsText = texttmpl.Must(texttmpl.New("credentials").Parse(`Hello {{.Name}},

A Schedulo account has been created for you.
Employee ID: {{.EmployeeID}}
Password: {{.Password}}

Sign in with your employee ID and change the password after your first login.
`))
	credentialsHTML = htmltmpl.Must(htmltmpl.New("credentials").Parse(`<p>Hello {{.Name}},</p>
<p>A Schedulo account has been created for you.</p>
<ul><li>Employee ID: <strong>{{.EmployeeID}}</strong></li><li>Password: <strong>{{.Password}}</strong></li></ul>
<p>Sign in with your employee ID and change the password after your first login.</p>`))

	allocationText = texttmpl.Must(texttmpl.New("allocation").Parse(`Hello {{.Name}},

{{if .Updated}}Your invigilation duty has been updated.{{else}}You have a new invigilation duty.{{end}}
Exam: {{.ExamName}}
Date: {{.Date}}
{{if .Room}}Room: {{.Room}}
{{end}}{{if .Shift}}Shift: {{.Shift}}
{{end}}`))
	allocationHTML = htmltmpl.Must(htmltmpl.New("allocation").Parse(`<p>Hello {{.Name}},</p>
<p>{{if .Updated}}Your invigilation duty has been updated.{{else}}You have a new invigilation duty.{{end}}</p>
<ul><li>Exam: {{.ExamName}}</li><li>Date: {{.Date}}</li>{{if .Room}}<li>Room: {{.Room}}</li>{{end}}{{if .Shift}}<li>Shift: {{.Shift}}</li>{{end}}</ul>`))
)

func render(text *texttmpl.Template, html *htmltmpl.Template, data any) (string, string, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return "", "", fmt.Errorf("render %s text: %w", text.Name(), err)
	}
	if err := html.Execute(&hb, data); err != nil {
		return "", "", fmt.Errorf("render %s html: %w", html.Name(), err)
	}
	return tb.String(), hb.String(), nil
}

// PasswordResetOTP renders the reset code email.
func PasswordResetOTP(name, email, employeeID, otp string, ttl time.Duration) (Message, error) {
	data := struct {
		Name, EmployeeID, OTP string
		Minutes               int
	}{name, employeeID, otp, int(ttl.Minutes())}
	text, html, err := render(otpText, otpHTML, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      mail.Address{Name: name, Address: email},
		Subject: "Password reset code",
		Text:    text,
		HTML:    html,
	}, nil
}

// FacultyCredentials renders the welcome email carrying a generated password.
func FacultyCredentials(name, email, employeeID, password string) (Message, error) {
	data := struct{ Name, EmployeeID, Password string }{name, employeeID, password}
	text, html, err := render(credentialsText, credentialsHTML, data)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      mail.Address{Name: name, Address: email},
		Subject: "Your Schedulo login credentials",
		Text:    text,
		HTML:    html,
	}, nil
}

// AllocationNotice renders a new or updated duty email.
func AllocationNotice(name, email, examName string, examDate time.Time, room, shift string, updated bool) (Message, error) {
	data := struct {
		Name, ExamName, Date, Room, Shift string
		Updated                           bool
	}{name, examName, examDate.Format("Mon, 02 Jan 2006 15:04"), room, shift, updated}
	text, html, err := render(allocationText, allocationHTML, data)
	if err != nil {
		return Message{}, err
	}
	subject := "New invigilation duty: " + examName
	if updated {
		subject = "Invigilation duty updated: " + examName
	}
	return Message{
		To:      mail.Address{Name: name, Address: email},
		Subject: subject,
		Text:    text,
		HTML:    html,
	}, nil
}
