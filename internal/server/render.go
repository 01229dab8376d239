package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emberapp/ember-server/internal/db"
)

// ProfileJSON shapes a user row for API responses. Credentials and the raw
// push subscription never leave the server.
func ProfileJSON(u *db.User) gin.H {
	out := gin.H{
		"id":               u.ID,
		"firstName":        u.FirstName,
		"lastName":         u.LastName,
		"birthDate":        u.BirthDate,
		"genderPreference": u.GenderPreference,
		"photos":           emptyIfNil(u.Photos),
		"interests":        emptyIfNil(u.Interests),
		"about":            u.About,
		"profileComplete":  u.ProfileComplete,
	}
	if u.HasLocation() {
		loc := gin.H{"latitude": *u.Latitude, "longitude": *u.Longitude}
		if u.LocationUpdatedAt != nil {
			loc["updatedAt"] = u.LocationUpdatedAt.UnixMilli()
		}
		out["location"] = loc
	}
	return out
}

// MessageJSON shapes a chat message.
func MessageJSON(m db.Message) gin.H {
	return gin.H{
		"id":        m.ID,
		"chatId":    m.ChatID,
		"from":      m.FromID,
		"text":      m.Text,
		"createdAt": m.CreatedAt.UnixMilli(),
	}
}

// MessagesJSON shapes an ordered message history.
func MessagesJSON(msgs []db.Message) []gin.H {
	out := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageJSON(m))
	}
	return out
}

// ChatJSON shapes an inbox entry with its counterpart snapshot.
func ChatJSON(chatID string, updatedAt time.Time, counterpart *db.User) gin.H {
	return gin.H{
		"id":        chatID,
		"updatedAt": updatedAt.UnixMilli(),
		"other":     ProfileJSON(counterpart),
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
