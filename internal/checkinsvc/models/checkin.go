package models

import (
	"time"
)

const DefaultEventID = "asistencia"

// Checkin represents one attendee's registration for an event occurrence.
type Checkin struct {
	ID        string    `json:"id" bson:"_id" db:"id"`
	Name      string    `json:"name" bson:"name" db:"name"`
	Contact   string    `json:"contact" bson:"contact" db:"contact"`
	IsNew     bool      `json:"isNew" bson:"isNew" db:"is_new"`
	Guests    int       `json:"guests" bson:"guests" db:"guests"`
	EventID   string    `json:"eventId" bson:"eventId" db:"event_id"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp" db:"checked_in_at"`
}

// CheckinInput is the body of a check-in submission. Every field is lenient,
// see FlexString, FlexInt and FlexBool.
type CheckinInput struct {
	Name      FlexString `json:"name"`
	Contact   FlexString `json:"contact"`
	IsNew     FlexBool   `json:"isNew"`
	Guests    FlexInt    `json:"guests"`
	EventID   FlexString `json:"eventId"`
	Timestamp FlexString `json:"timestamp"`
}

// CheckinUpdate is the body of an admin edit. A nil field was absent from the
// request and is left untouched.
type CheckinUpdate struct {
	ID      FlexString  `json:"id"`
	Name    *FlexString `json:"name"`
	Contact *FlexString `json:"contact"`
	Guests  *FlexInt    `json:"guests"`
	IsNew   *FlexBool   `json:"isNew"`
}

// CheckinPatch is the store-level form of CheckinUpdate.
type CheckinPatch struct {
	Name    *string
	Contact *string
	Guests  *int
	IsNew   *bool
}

func (u CheckinUpdate) Patch() CheckinPatch {
	var p CheckinPatch
	if u.Name != nil {
		v := u.Name.String()
		p.Name = &v
	}
	if u.Contact != nil {
		v := u.Contact.String()
		p.Contact = &v
	}
	if u.Guests != nil {
		v := u.Guests.Int()
		p.Guests = &v
	}
	if u.IsNew != nil {
		v := u.IsNew.Bool()
		p.IsNew = &v
	}
	return p
}

func (p CheckinPatch) Empty() bool {
	return p.Name == nil && p.Contact == nil && p.Guests == nil && p.IsNew == nil
}

// Apply copies the present fields of p onto c.
func (p CheckinPatch) Apply(c *Checkin) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Contact != nil {
		c.Contact = *p.Contact
	}
	if p.Guests != nil {
		c.Guests = *p.Guests
	}
	if p.IsNew != nil {
		c.IsNew = *p.IsNew
	}
}

// Credentials is the login request body.
type Credentials struct {
	Email    FlexString `json:"email"`
	Password FlexString `json:"password"`
}
