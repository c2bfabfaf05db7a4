package boards

import "github.com/stelliform/sketchsphere/internal/domain"

type roomResponse struct {
	RoomID   string           `json:"roomId"`
	Users    []domain.User    `json:"users"`
	Elements []domain.Element `json:"elements"`
}
