package entity

import "time"

// Channel is a named group conversation. AdminID always appears in
// Members as well; Members carries no duplicates. Message history is
// owned by the messaging subsystem and referenced only by channel id.
type Channel struct {
	ID        string
	Name      string
	AdminID   string
	Members   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasMember reports whether the account id is in the member set.
func (c *Channel) HasMember(id string) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}
