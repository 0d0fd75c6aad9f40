package model

import (
	"strings"
	"time"
)

const maxIDLen = 64

// ValidID reports whether s is acceptable as a user id. Ids end up as mongo
// field path segments (the per-participant open flags on a conversation are
// keyed by user id), so dots, dollar signs, and control characters are
// rejected at the edge rather than sanitized later.
func ValidID(s string) bool {
	if s == "" || len(s) > maxIDLen {
		return false
	}
	return !strings.ContainsAny(s, ".$ \t\r\n\x00")
}

// User is the account master record. Profile fields beyond what the
// real-time layer and the roster need live with the main REST service.
type User struct {
	UserID   string `bson:"user_id" json:"userId"` // immutable primary key
	Username string `bson:"username" json:"username"`
	Name     string `bson:"name" json:"name"`      // display name, used in notification content
	FaceURL  string `bson:"face_url" json:"imgUrl"` // avatar
	Email    string `bson:"email,omitempty" json:"-"`

	// Presence. Online is flipped by the gateway on connect/disconnect;
	// SocketID records the live connection currently bound to the user.
	Online   bool   `bson:"online" json:"online"`
	SocketID string `bson:"socket_id,omitempty" json:"-"`

	Followers []string `bson:"followers,omitempty" json:"-"`

	CreateTime time.Time `bson:"create_time" json:"-"`
}

// UserPublic is the projection pushed in the online roster.
type UserPublic struct {
	UserID   string `bson:"user_id" json:"userId"`
	Username string `bson:"username" json:"username"`
	Name     string `bson:"name" json:"name"`
	FaceURL  string `bson:"face_url" json:"imgUrl"`
}

func (u *User) Public() UserPublic {
	return UserPublic{UserID: u.UserID, Username: u.Username, Name: u.Name, FaceURL: u.FaceURL}
}

func (*User) TableName() string { return "user" }
