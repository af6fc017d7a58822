package models

import "time"

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       string    `json:"color,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color,omitempty"`
}

// UpdateGroupRequest carries a partial update. Nil fields are left unchanged.
type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Color       *string `json:"color,omitempty"`
}

func (r UpdateGroupRequest) Apply(g *Group) {
	if r.Name != nil {
		g.Name = *r.Name
	}
	if r.Description != nil {
		g.Description = *r.Description
	}
	if r.Color != nil {
		g.Color = *r.Color
	}
}
