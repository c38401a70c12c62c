// Package models defines the records persisted by the profilekeeper client.
package models

import (
	"slices"
	"time"
)

// User is a single directory record: profile plus stored credential.
//
// Password holds whatever the configured hasher produced (an argon2id
// string by default). It is omitted from the persisted session copy.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password,omitempty"`
	Avatar    *string   `json:"avatar"`
	GitHub    string    `json:"github"`
	Education string    `json:"education"`
	About     string    `json:"about"`
	Projects  []string  `json:"projects"`
	CreatedAt time.Time `json:"createdAt"`
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	c := u
	if u.Avatar != nil {
		a := *u.Avatar
		c.Avatar = &a
	}
	c.Projects = slices.Clone(u.Projects)
	if c.Projects == nil {
		c.Projects = []string{}
	}
	return c
}

// WithoutPassword returns a copy safe to keep as the session snapshot.
func (u User) WithoutPassword() User {
	c := u.Clone()
	c.Password = ""
	return c
}

// ProfileUpdate is a partial set of profile fields. Nil fields are left
// untouched. Identity, credential and creation time are not patchable.
type ProfileUpdate struct {
	Name      *string
	Email     *string
	Avatar    *string
	GitHub    *string
	Education *string
	About     *string
	Projects  []string
}

// IsEmpty reports whether the patch would change nothing.
func (p ProfileUpdate) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Avatar == nil &&
		p.GitHub == nil && p.Education == nil && p.About == nil && p.Projects == nil
}

// ApplyTo merges p into u. An empty Avatar removes the avatar.
func (p ProfileUpdate) ApplyTo(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Avatar != nil {
		if *p.Avatar == "" {
			u.Avatar = nil
		} else {
			a := *p.Avatar
			u.Avatar = &a
		}
	}
	if p.GitHub != nil {
		u.GitHub = *p.GitHub
	}
	if p.Education != nil {
		u.Education = *p.Education
	}
	if p.About != nil {
		u.About = *p.About
	}
	if p.Projects != nil {
		u.Projects = slices.Clone(p.Projects)
	}
}
