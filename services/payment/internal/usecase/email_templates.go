package usecase

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shivam7053/raga-vachika/pkg/mail"
	"github.com/shivam7053/raga-vachika/services/payment/internal/domain/model"
)

// Email tags used for logging and queue routing
const (
	EmailTagPurchaseConfirmation = "purchase_confirmation"
	EmailTagSessionReminder      = "session_reminder"
	EmailTagMasterclassUpdate    = "masterclass_update"
	EmailTagNewContent           = "new_content"
)

const sessionTimeLayout = "Mon, 02 Jan 2006 15:04 MST"

var purchaseConfirmationTmpl = template.Must(template.New("purchase").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Hi {{.Name}},</h2>
  <p>Your enrollment in <strong>{{.Title}}</strong> is confirmed.</p>
  <table cellpadding="4">
    <tr><td>Order</td><td>{{.OrderID}}</td></tr>
    {{- if .PaymentID}}
    <tr><td>Payment</td><td>{{.PaymentID}}</td></tr>
    {{- end}}
    <tr><td>Amount</td><td>{{.Amount}}</td></tr>
  </table>
  {{- if .Sessions}}
  <p>Upcoming live sessions:</p>
  <ul>
    {{- range .Sessions}}
    <li>{{.Title}} on {{.When}}</li>
    {{- end}}
  </ul>
  {{- end}}
  <p><a href="{{.Link}}">Open your masterclass</a></p>
</body>
</html>`))

var sessionReminderTmpl = template.Must(template.New("reminder").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Hi {{.Name}},</h2>
  <p><strong>{{.SessionTitle}}</strong> from <strong>{{.Title}}</strong> starts on {{.When}}.</p>
  {{- if .JoinURL}}
  <p><a href="{{.JoinURL}}">Join the session</a></p>
  {{- end}}
  <p><a href="{{.Link}}">Open your masterclass</a></p>
</body>
</html>`))

var masterclassUpdateTmpl = template.Must(template.New("update").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Hi {{.Name}},</h2>
  <p>There is an update for <strong>{{.Title}}</strong>, a masterclass you are enrolled in.</p>
  <p><a href="{{.Link}}">See what changed</a></p>
</body>
</html>`))

var newContentTmpl = template.Must(template.New("content").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2>Hi {{.Name}},</h2>
  <p>New content was added to <strong>{{.Title}}</strong>:</p>
  <ul>
    {{- range .Sessions}}
    <li><strong>{{.Title}}</strong> ({{.Kind}}){{if .When}}, scheduled for {{.When}}{{end}}</li>
    {{- end}}
  </ul>
  <p><a href="{{.Link}}">Open your masterclass</a></p>
</body>
</html>`))

type sessionLine struct {
	Title string
	When  string
}

func purchaseConfirmationEmail(profile *model.UserProfile, entry *model.LedgerEntry, masterclass *model.Masterclass, siteURL string, now time.Time) (mail.Message, error) {
	title := entry.Title
	if title == "" && masterclass != nil {
		title = masterclass.Title
	}

	data := struct {
		Name      string
		Title     string
		OrderID   string
		PaymentID string
		Amount    string
		Sessions  []sessionLine
		Link      string
	}{
		Name:      displayName(profile),
		Title:     title,
		OrderID:   entry.OrderID,
		PaymentID: model.StringValue(entry.PaymentID),
		Amount:    formatAmount(entry),
		Link:      masterclassLink(siteURL, model.StringValue(entry.MasterclassID)),
	}
	if masterclass != nil {
		for _, s := range masterclass.Sessions {
			if s.IsLive() && s.ScheduledAt.After(now) {
				data.Sessions = append(data.Sessions, sessionLine{Title: s.Title, When: s.ScheduledAt.Format(sessionTimeLayout)})
			}
		}
	}

	var buf bytes.Buffer
	if err := purchaseConfirmationTmpl.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render purchase confirmation: %w", err)
	}

	return mail.Message{
		To:      profile.Email,
		Subject: fmt.Sprintf("You're enrolled: %s", title),
		HTML:    buf.String(),
		Tag:     EmailTagPurchaseConfirmation,
	}, nil
}

func sessionReminderEmail(profile *model.UserProfile, masterclass *model.Masterclass, session *model.MasterclassSession, siteURL string) (mail.Message, error) {
	data := struct {
		Name         string
		Title        string
		SessionTitle string
		When         string
		JoinURL      string
		Link         string
	}{
		Name:         displayName(profile),
		Title:        masterclass.Title,
		SessionTitle: session.Title,
		When:         session.ScheduledAt.Format(sessionTimeLayout),
		JoinURL:      session.JoinURL,
		Link:         masterclassLink(siteURL, masterclass.ID),
	}

	var buf bytes.Buffer
	if err := sessionReminderTmpl.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render session reminder: %w", err)
	}

	return mail.Message{
		To:      profile.Email,
		Subject: fmt.Sprintf("Reminder: %s starts soon", session.Title),
		HTML:    buf.String(),
		Tag:     EmailTagSessionReminder,
	}, nil
}

func masterclassUpdateEmail(profile *model.UserProfile, masterclass *model.Masterclass, siteURL string) (mail.Message, error) {
	data := struct {
		Name  string
		Title string
		Link  string
	}{
		Name:  displayName(profile),
		Title: masterclass.Title,
		Link:  masterclassLink(siteURL, masterclass.ID),
	}

	var buf bytes.Buffer
	if err := masterclassUpdateTmpl.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render masterclass update: %w", err)
	}

	return mail.Message{
		To:      profile.Email,
		Subject: fmt.Sprintf("An Update on Your Masterclass: %s", masterclass.Title),
		HTML:    buf.String(),
		Tag:     EmailTagMasterclassUpdate,
	}, nil
}

func newContentEmail(profile *model.UserProfile, masterclass *model.Masterclass, sessions []model.MasterclassSession, siteURL string) (mail.Message, error) {
	type contentLine struct {
		Title string
		Kind  string
		When  string
	}
	lines := make([]contentLine, 0, len(sessions))
	for i := range sessions {
		line := contentLine{Title: sessions[i].Title, Kind: sessionKind(&sessions[i])}
		if sessions[i].ScheduledAt != nil {
			line.When = sessions[i].ScheduledAt.Format(sessionTimeLayout)
		}
		lines = append(lines, line)
	}

	data := struct {
		Name     string
		Title    string
		Sessions []contentLine
		Link     string
	}{
		Name:     displayName(profile),
		Title:    masterclass.Title,
		Sessions: lines,
		Link:     masterclassLink(siteURL, masterclass.ID),
	}

	var buf bytes.Buffer
	if err := newContentTmpl.Execute(&buf, data); err != nil {
		return mail.Message{}, fmt.Errorf("failed to render new content email: %w", err)
	}

	return mail.Message{
		To:      profile.Email,
		Subject: fmt.Sprintf("New Content Added to %s!", masterclass.Title),
		HTML:    buf.String(),
		Tag:     EmailTagNewContent,
	}, nil
}

func sessionKind(session *model.MasterclassSession) string {
	if session.Source == model.SessionSourceZoom {
		return "Live Zoom Session"
	}
	return "YouTube Video"
}

func displayName(profile *model.UserProfile) string {
	if profile.Name != "" {
		return profile.Name
	}
	return "there"
}

func formatAmount(entry *model.LedgerEntry) string {
	if entry.Amount.IsZero() {
		return "Free"
	}
	return entry.Currency + " " + entry.Amount.StringFixed(2)
}

func masterclassLink(siteURL, masterclassID string) string {
	if masterclassID == "" {
		return siteURL
	}
	return siteURL + "/masterclasses/" + masterclassID
}
