package rooms

import "errors"

var errRoomIDMissing = errors.New("room ID is missing")

type memberResponse struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserColor string `json:"userColor"`
}

type roomResponse struct {
	ID           string           `json:"id"`
	MemberCount  int              `json:"memberCount"`
	ElementCount int              `json:"elementCount"`
	Members      []memberResponse `json:"members"`
}
