package utils

import (
	"bytes"
	"html/template"
	"net/url"
	"strconv"
	"strings"

	"hoogi/models"
)

// Contact holds the respondent details extracted from a lead's answers.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// FirstName returns the first word of the contact name.
func (c Contact) FirstName() string {
	fields := strings.Fields(c.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ExtractContact pulls name/email/phone out of a lead's answers.
// Questions tagged with a contact role win; untagged questionnaires
// fall back to the historical convention of question 1 = name,
// question 2 = email, question 3 = phone.
func ExtractContact(questions []models.Question, answers map[string]string) Contact {
	var contact Contact

	answerFor := func(q models.Question) string {
		return answers[strconv.FormatUint(uint64(q.ID), 10)]
	}

	for _, q := range questions {
		switch q.Role {
		case models.RoleContactName:
			contact.Name = answerFor(q)
		case models.RoleContactEmail:
			contact.Email = answerFor(q)
		case models.RoleContactPhone:
			contact.Phone = answerFor(q)
		}
	}

	for _, q := range questions {
		switch {
		case q.Position == 1 && contact.Name == "":
			contact.Name = answerFor(q)
		case q.Position == 2 && contact.Email == "":
			contact.Email = answerFor(q)
		case q.Position == 3 && contact.Phone == "":
			contact.Phone = answerFor(q)
		}
	}

	return contact
}

// RenderTokens substitutes the template editor's tokens with contact
// and owner-profile values. Unknown tokens are left untouched.
func RenderTokens(s string, contact Contact, owner *models.User) string {
	business := ""
	if owner != nil {
		business = owner.Company
	}

	return strings.NewReplacer(
		"{{firstName}}", contact.FirstName(),
		"{{fullName}}", contact.Name,
		"{{businessName}}", business,
		"{{email}}", contact.Email,
		"{{phone}}", contact.Phone,
	).Replace(s)
}

// EnsureScheme prefixes bare link URLs with https://. URLs that
// already carry a scheme (https, mailto, tel) pass through untouched.
func EnsureScheme(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		return rawURL
	}
	return "https://" + rawURL
}

// BodyHTML marks an author-provided message body as trusted HTML. The
// template editor owns the body; it goes into the layout unescaped.
func BodyHTML(body string) template.HTML {
	return template.HTML(body)
}

// MessageEmailData feeds the fixed branded email layout shared by
// auto-replies and reminders.
type MessageEmailData struct {
	BusinessName  string
	LogoURL       string
	Body          template.HTML
	AttachmentURL string
	LinkURL       string
	LinkLabel     string
	Year          int
}

const messageEmailLayout = `<!DOCTYPE html>
<html dir="auto">
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 1px solid #eee; padding-bottom: 10px; text-align: center; }
        .header img { max-height: 60px; }
        .content { margin: 20px 0; white-space: pre-line; }
        .attachment { margin: 20px 0; text-align: center; }
        .attachment img { max-width: 100%; border-radius: 4px; }
        .button { display: inline-block; padding: 12px 24px; background-color: #7c3aed; color: white; text-decoration: none; border-radius: 4px; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        {{if .LogoURL}}<img src="{{.LogoURL}}" alt="{{.BusinessName}}">{{else}}<h2>{{.BusinessName}}</h2>{{end}}
    </div>

    <div class="content">{{.Body}}</div>

    {{if .AttachmentURL}}
    <div class="attachment">
        <img src="{{.AttachmentURL}}" alt="">
    </div>
    {{end}}

    {{if .LinkURL}}
    <p style="text-align: center;">
        <a href="{{.LinkURL}}" class="button">{{if .LinkLabel}}{{.LinkLabel}}{{else}}{{.LinkURL}}{{end}}</a>
    </p>
    {{end}}

    <div class="footer">
        <p>&copy; {{.Year}} {{.BusinessName}}</p>
    </div>
</body>
</html>`

var messageEmailTmpl = template.Must(template.New("reminder").Parse(messageEmailLayout))

// BuildMessageHTML renders the fixed email layout around an already
// token-substituted body.
func BuildMessageHTML(data MessageEmailData) (string, error) {
	var out bytes.Buffer
	if err := messageEmailTmpl.Execute(&out, data); err != nil {
		return "", err
	}
	return out.String(), nil
}
