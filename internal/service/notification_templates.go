package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/noah-isme/course-market-api/internal/models"
)

const maxNotesInMessage = 1500

var emailLayout = template.Must(template.New("notification_email").Parse(`<!doctype html>
<html>
  <body style="font-family: Arial, sans-serif; color: #1f2933;">
    <h2>{{.Heading}}</h2>
    <p>Hi {{.Name}},</p>
    <p>{{.Body}}</p>
    {{- if .Notes}}
    <p><strong>Reviewer notes</strong></p>
    <blockquote style="border-left: 3px solid #cbd2d9; padding-left: 12px;">{{.Notes}}</blockquote>
    {{- end}}
    {{- if .URL}}
    <p><a href="{{.URL}}">{{.CallToAction}}</a></p>
    {{- end}}
  </body>
</html>
`))

// notificationContent is the recipient-independent part of a notification.
type notificationContent struct {
	Title        string
	Message      string
	Type         models.NotificationType
	Link         string
	Subject      string
	Heading      string
	Body         string
	Notes        string
	CallToAction string
}

type emailView struct {
	Heading      string
	Name         string
	Body         string
	Notes        string
	URL          string
	CallToAction string
}

func buildContent(payload DispatchPayload) (notificationContent, error) {
	notes := strings.TrimSpace(payload.Notes)

	switch payload.Event {
	case EventCourseApproved, EventCourseRejected, EventCoursePublished:
		if payload.Course == nil {
			return notificationContent{}, fmt.Errorf("%s requires a course", payload.Event)
		}
	case EventInstructorApproved, EventInstructorRejected:
		if payload.Application == nil {
			return notificationContent{}, fmt.Errorf("%s requires an application", payload.Event)
		}
	default:
		return notificationContent{}, fmt.Errorf("unknown notification event %q", payload.Event)
	}

	var content notificationContent
	switch payload.Event {
	case EventCourseApproved:
		title := payload.Course.Title
		content = notificationContent{
			Title:        "Course approved",
			Message:      fmt.Sprintf("Your course %s has been approved and is now published.", title),
			Type:         models.NotificationCourse,
			Link:         courseLink(payload.Course.ID),
			Subject:      "Your course has been approved",
			Heading:      "Your course is live",
			Body:         fmt.Sprintf("Good news: %s passed review and is now visible in the catalog.", title),
			CallToAction: "View course",
		}
	case EventCourseRejected:
		title := payload.Course.Title
		content = notificationContent{
			Title:        "Course not approved",
			Message:      withNotes(fmt.Sprintf("Your course %s was not approved.", title), notes),
			Type:         models.NotificationCourse,
			Link:         courseLink(payload.Course.ID),
			Subject:      "Update on your course submission",
			Heading:      "Your course needs changes",
			Body:         fmt.Sprintf("%s was reviewed and could not be approved yet.", title),
			CallToAction: "Review your course",
		}
	case EventInstructorApproved:
		content = notificationContent{
			Title:        "Instructor application approved",
			Message:      "Congratulations, you can now create and publish courses as an instructor.",
			Type:         models.NotificationSystem,
			Link:         "/instructor/dashboard",
			Subject:      "Welcome aboard as an instructor",
			Heading:      "You are now an instructor",
			Body:         "Your application was approved. You can start submitting courses right away.",
			CallToAction: "Open instructor dashboard",
		}
	case EventInstructorRejected:
		content = notificationContent{
			Title:        "Instructor application update",
			Message:      withNotes("Your instructor application was not approved.", notes),
			Type:         models.NotificationSystem,
			Link:         "/become-instructor",
			Subject:      "Update on your instructor application",
			Heading:      "Your application was reviewed",
			Body:         "Thank you for applying. We are not able to approve your application at this time.",
			CallToAction: "See application",
		}
	case EventCoursePublished:
		title := payload.Course.Title
		content = notificationContent{
			Title:        "New course available",
			Message:      fmt.Sprintf("An instructor you follow just published a new course: %s.", title),
			Type:         models.NotificationNewCourse,
			Link:         courseLink(payload.Course.ID),
			Subject:      "New course from an instructor you follow",
			Heading:      "A new course just dropped",
			Body:         fmt.Sprintf("%s is now available in the catalog.", title),
			CallToAction: "Check it out",
		}
	}

	if payload.Event == EventCourseRejected || payload.Event == EventInstructorRejected {
		content.Notes = notes
	}
	return content, nil
}

func (c notificationContent) renderEmail(name, baseURL string) (string, string, error) {
	if strings.TrimSpace(name) == "" {
		name = "there"
	}
	url := ""
	if c.Link != "" {
		url = strings.TrimRight(baseURL, "/") + c.Link
	}

	var html bytes.Buffer
	view := emailView{
		Heading:      c.Heading,
		Name:         name,
		Body:         c.Body,
		Notes:        c.Notes,
		URL:          url,
		CallToAction: c.CallToAction,
	}
	if err := emailLayout.Execute(&html, view); err != nil {
		return "", "", err
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\n%s\n", name, c.Body)
	if c.Notes != "" {
		fmt.Fprintf(&text, "\nReviewer notes:\n%s\n", c.Notes)
	}
	if url != "" {
		fmt.Fprintf(&text, "\n%s: %s\n", c.CallToAction, url)
	}
	return html.String(), text.String(), nil
}

func courseLink(id uint) string {
	return fmt.Sprintf("/courses/%d", id)
}

func withNotes(message, notes string) string {
	if notes == "" {
		return message
	}
	runes := []rune(notes)
	if len(runes) > maxNotesInMessage {
		notes = string(runes[:maxNotesInMessage]) + "..."
	}
	return message + " Reviewer notes: " + notes
}
