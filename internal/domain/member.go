package domain

import (
	"fmt"
	"hash/fnv"
)

// Member is one connection currently joined to a room.
type Member struct {
	ConnID string `json:"userId"`
	Name   string `json:"userName"`
	Color  string `json:"userColor"`
}

// NewMember builds a member record, deriving the display name and color
// deterministically from the connection ID when the client omits them.
func NewMember(connID, name, color string) Member {
	if name == "" {
		name = DefaultName(connID)
	}
	if color == "" {
		color = DefaultColor(connID)
	}

	return Member{
		ConnID: connID,
		Name:   name,
		Color:  color,
	}
}

// DefaultName is "User-" plus the first five characters of the connection ID.
func DefaultName(connID string) string {
	short := connID
	if len(short) > 5 {
		short = short[:5]
	}
	return "User-" + short
}

// DefaultColor hashes the connection ID into a stable hex color, so the same
// connection always presents the same color to every peer.
func DefaultColor(connID string) string {
	h := fnv.New32a()
	h.Write([]byte(connID))
	return fmt.Sprintf("#%06x", h.Sum32()&0xffffff)
}
