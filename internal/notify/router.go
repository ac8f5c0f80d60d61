// Package notify classifies outgoing company messages and re-targets
// help requests at connected professionals of the author's company.
package notify

import (
	"context"
	"log"
	"strconv"
	"strings"

	"community-chat/internal/models"
	"community-chat/internal/observability"
	"community-chat/internal/repositories"
	"community-chat/internal/ws"
)

// helpKeywords trigger the help-request classification for student
// messages, matched case-insensitively.
var helpKeywords = []string{"interview", "help", "tomorrow", "guidance"}

// IsHelpRequest reports whether a message by the given role asks for
// help.
func IsHelpRequest(role, text string) bool {
	if role != models.RoleStudent {
		return false
	}
	lowered := strings.ToLower(text)
	for _, kw := range helpKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// Dispatcher is the targeted send surface of the hub.
type Dispatcher interface {
	Send(connID string, event string, payload interface{})
}

// Router resolves the secondary audience for help-request messages.
type Router struct {
	users      repositories.UserRepository
	companies  repositories.CompanyRepository
	registry   *ws.Registry
	dispatcher Dispatcher
}

// NewRouter constructs a Router.
func NewRouter(users repositories.UserRepository, companies repositories.CompanyRepository, registry *ws.Registry, dispatcher Dispatcher) *Router {
	return &Router{users: users, companies: companies, registry: registry, dispatcher: dispatcher}
}

// Notify sends a targeted help-request notification to every connected
// professional of the author's company, excluding the author. Directory
// lookups that fail only skip this step; the ordinary room broadcast
// has already happened and the sender never sees an error.
func (r *Router) Notify(ctx context.Context, msg models.Message, authorConnID string) {
	if !IsHelpRequest(msg.UserRole, msg.Text) {
		return
	}
	observability.IncHelpRequest()

	company, err := r.companies.GetCompany(ctx, msg.CompanyID)
	if err != nil {
		log.Printf("help-request: company %d lookup failed: %v", msg.CompanyID, err)
		return
	}

	professionals, err := r.users.FindByRoleAndCompany(ctx, models.RoleProfessional, company.Name)
	if err != nil {
		log.Printf("help-request: professional lookup for %q failed: %v", company.Name, err)
		return
	}

	payload := models.HelpRequest{
		Message:     msg,
		CompanyName: company.Name,
		StudentName: msg.UserName,
		Type:        "help-request",
	}

	sent := 0
	for _, info := range r.registry.ListByCompany(msg.CompanyID) {
		if info.ConnID == authorConnID || info.UserID == msg.UserID {
			continue
		}
		if !identifiesAny(info, professionals) {
			continue
		}
		r.dispatcher.Send(info.ConnID, models.EventHelpRequest, payload)
		sent++
	}
	if sent > 0 {
		log.Printf("help-request notification sent to %d %s professionals", sent, company.Name)
	}
}

// identifiesAny matches a connection to a directory record by numeric
// id or email; clients identify themselves with either.
func identifiesAny(info ws.ConnInfo, users []models.User) bool {
	for _, u := range users {
		if info.UserID == strconv.Itoa(u.ID) || info.UserID == u.Email || info.UserEmail == u.Email {
			return true
		}
	}
	return false
}
