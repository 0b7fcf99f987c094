package main

import (
	v1 "github.com/PaulBabatuyi/mindcare-gRPC/api/v1"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/data"
	"github.com/PaulBabatuyi/mindcare-gRPC/internal/validation"
)

func toUser(u *data.User) *v1.User {
	out := &v1.User{
		ID:    u.ID.Hex(),
		Name:  u.Name,
		Email: u.Email,
		Preferences: v1.Preferences{
			Theme:         u.Preferences.Theme,
			Notifications: u.Preferences.Notifications,
			Language:      u.Preferences.Language,
		},
		CreatedAt: u.CreatedAt,
	}
	for _, c := range u.EmergencyContacts {
		out.EmergencyContacts = append(out.EmergencyContacts, v1.EmergencyContact(c))
	}
	return out
}

func toMessage(m data.Message) v1.Message {
	out := v1.Message{
		ID:        m.ID.Hex(),
		Content:   m.Content,
		Sender:    string(m.Sender),
		Timestamp: m.Timestamp,
		Type:      string(m.Kind),
		Read:      m.Read,
	}
	if m.Metadata != nil {
		out.Metadata = &v1.MessageMetadata{
			Severity:     string(m.Metadata.Severity),
			ExerciseType: m.Metadata.ExerciseType,
			ResourceURL:  m.Metadata.ResourceURL,
		}
	}
	return out
}

func toMessages(msgs []data.Message) []v1.Message {
	out := make([]v1.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toMessage(m))
	}
	return out
}

func toConversation(c *data.Conversation) *v1.Conversation {
	return &v1.Conversation{
		ID:           c.ID.Hex(),
		Messages:     toMessages(c.Messages),
		IsActive:     c.IsActive,
		LastActivity: c.LastActivity,
		Sentiment:    string(c.Sentiment),
		Summary:      c.Summary,
		CreatedAt:    c.CreatedAt,
	}
}

// profileUpdate converts the request into the validator's and the store's shapes.
func profileUpdate(req *v1.UpdateProfileRequest) (*validation.Preferences, []validation.EmergencyContact, data.ProfileUpdate) {
	upd := data.ProfileUpdate{Name: req.Name}

	var prefs *validation.Preferences
	if p := req.Preferences; p != nil {
		prefs = &validation.Preferences{Theme: p.Theme, Language: p.Language}
		upd.Preferences = &data.Preferences{Theme: p.Theme, Notifications: p.Notifications, Language: p.Language}
	}

	var contacts []validation.EmergencyContact
	for _, c := range req.EmergencyContacts {
		contacts = append(contacts, validation.EmergencyContact(c))
		upd.EmergencyContacts = append(upd.EmergencyContacts, data.EmergencyContact(c))
	}
	return prefs, contacts, upd
}
