package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	gomail "gopkg.in/mail.v2"

	"douban-pulse/storage"
)

// EmailConfig contains configuration for email notifications
type EmailConfig struct {
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SenderEmail    string
	SenderPassword string
	RecipientEmail string
}

// mailer is satisfied by *gomail.Dialer.
type mailer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier handles sending email notifications
type EmailNotifier struct {
	senderEmail    string
	recipientEmail string
	htmlTemplate   *template.Template
	mailer         mailer
	now            func() time.Time
}

var topListTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Douban Pulse - Top List Update</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 900px; margin: 0 auto; }
        h1 { color: #007722; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th { background-color: #f4f4f4; text-align: left; padding: 8px; }
        td { padding: 8px; border-bottom: 1px solid #ddd; }
        .count { font-weight: bold; color: #007722; }
        .rating { color: #e09015; font-weight: bold; }
        .footer { font-size: 12px; color: #666; margin-top: 50px; text-align: center; }
    </style>
</head>
<body>
    <h1>Douban Pulse - Top List Update</h1>
    <p>The Douban Top list was crawled on {{.Date}}.</p>
    <p>Saved <span class="count">{{.Saved}}</span> of {{.Total}} movies. Average rating: {{printf "%.2f" .AverageRating}}</p>

    <table>
        <tr>
            <th>#</th>
            <th>Title</th>
            <th>Year</th>
            <th>Rating</th>
            <th>Director</th>
            <th>Country</th>
            <th>Genre</th>
        </tr>
        {{range .Movies}}
        <tr>
            <td>{{.Rank}}</td>
            <td>{{if .DoubanURL}}<a href="{{.DoubanURL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}{{if .TitleEn}}<br><small>{{.TitleEn}}</small>{{end}}</td>
            <td>{{if .Year}}{{.Year}}{{else}}-{{end}}</td>
            <td class="rating">{{if .Rating}}{{printf "%.1f" .Rating}}{{else}}-{{end}}</td>
            <td>{{.Director}}</td>
            <td>{{.Country}}</td>
            <td>{{.Genre}}</td>
        </tr>
        {{end}}
    </table>

    <div class="footer">
        <p>This is an automated email from Douban Pulse. Please do not reply.</p>
    </div>
</body>
</html>
`

type topListData struct {
	Date          string
	Saved         int
	Total         int
	AverageRating float64
	Movies        []storage.MovieRecord
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	if config.SMTPHost == "" {
		return nil, fmt.Errorf("smtp host is not configured")
	}
	if config.RecipientEmail == "" {
		return nil, fmt.Errorf("recipient email is not configured")
	}

	tmpl, err := template.New("email").Parse(topListTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}

	user := config.SMTPUser
	if user == "" {
		user = "api"
	}
	d := gomail.NewDialer(config.SMTPHost, config.SMTPPort, user, config.SenderPassword)

	return &EmailNotifier{
		senderEmail:    config.SenderEmail,
		recipientEmail: config.RecipientEmail,
		htmlTemplate:   tmpl,
		mailer:         d,
		now:            time.Now,
	}, nil
}

// NotifyTopList sends a summary of a saved Top list batch.
func (n *EmailNotifier) NotifyTopList(movies []storage.MovieRecord, result storage.SaveResult) error {
	if len(movies) == 0 {
		log.Println("No movies to notify about")
		return nil
	}

	m, err := n.buildTopListMessage(movies, result)
	if err != nil {
		return err
	}
	if err := n.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email notification sent to %s with %d movies", n.recipientEmail, len(movies))
	return nil
}

// SendTest sends a short message to verify the SMTP settings.
func (n *EmailNotifier) SendTest() error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", "Test Email from Douban Pulse")
	m.SetBody("text/html", "<h1>Test Email</h1><p>This is a test email from Douban Pulse to verify the SMTP configuration.</p>")

	log.Println("Attempting to send test email...")
	if err := n.mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send test email: %w", err)
	}
	log.Println("Email sent successfully!")
	return nil
}

func (n *EmailNotifier) buildTopListMessage(movies []storage.MovieRecord, result storage.SaveResult) (*gomail.Message, error) {
	data := topListData{
		Date:          n.now().Format("January 2, 2006 at 3:04 PM"),
		Saved:         result.Saved,
		Total:         result.Total,
		AverageRating: averageRating(movies),
		Movies:        movies,
	}

	html, err := n.renderHTML(data)
	if err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.senderEmail)
	m.SetHeader("To", n.recipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Douban Pulse: %d/%d Top Movies Saved", result.Saved, result.Total))
	m.SetBody("text/plain", renderText(data))
	m.AddAlternative("text/html", html)
	return m, nil
}

func (n *EmailNotifier) renderHTML(data topListData) (string, error) {
	var body bytes.Buffer
	if err := n.htmlTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return body.String(), nil
}

func renderText(data topListData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Douban Pulse Top List Update\n\n")
	fmt.Fprintf(&b, "Crawled on %s.\n", data.Date)
	fmt.Fprintf(&b, "Saved %d/%d movies, average rating %.2f\n\n", data.Saved, data.Total, data.AverageRating)

	limit := min(10, len(data.Movies))
	for _, m := range data.Movies[:limit] {
		fmt.Fprintf(&b, "%d. %s (%s) %.1f\n", m.Rank, m.Title, m.Year, m.Rating)
	}
	if len(data.Movies) > limit {
		fmt.Fprintf(&b, "... and %d more\n", len(data.Movies)-limit)
	}

	b.WriteString("\nThis is an automated email from Douban Pulse. Please do not reply.")
	return b.String()
}

// averageRating ignores movies without a rating.
func averageRating(movies []storage.MovieRecord) float64 {
	var sum float64
	var n int
	for _, m := range movies {
		if m.Rating > 0 {
			sum += m.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
