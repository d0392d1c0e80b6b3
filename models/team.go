package models

import (
	"errors"
	"time"
)

// ErrReferralCodeTaken is returned when a generated referral code collides with an existing one
var ErrReferralCodeTaken = errors.New("referral code already in use")

// TeamNode is one participant of the referral matrix as handed to the
// matrix renderer. Children are owned by the node and keep the order in
// which the data source returned them.
type TeamNode struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	ReferralCode string      `json:"referralCode,omitempty"`
	Level        int         `json:"level"`
	Children     []*TeamNode `json:"children,omitempty"`
}

// TeamMember is the persisted form of a participant. Roots have an empty ParentID.
type TeamMember struct {
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty"`
	ReferralCode string    `json:"referralCode,omitempty" bson:"referralCode,omitempty"`
	Level        int       `json:"level" bson:"level"`
	ParentID     string    `json:"parentId,omitempty" bson:"parentId,omitempty"`
	Position     int       `json:"position" bson:"position"`
	FCMToken     string    `json:"-" bson:"fcmToken,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Node converts the member into a childless TeamNode
func (m TeamMember) Node() *TeamNode {
	return &TeamNode{
		ID:           m.ID,
		Name:         m.Name,
		ReferralCode: m.ReferralCode,
		Level:        m.Level,
	}
}

// MatrixNode is the display form of a TeamNode
type MatrixNode struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	ReferralCode      string        `json:"referralCode"`
	Level             int           `json:"level"`
	Category          string        `json:"category"`
	Depth             int           `json:"depth"`
	DescendantCount   int           `json:"descendantCount"`
	IsLast            bool          `json:"isLast"`
	ParentHasMultiple bool          `json:"parentHasMultiple"`
	Children          []*MatrixNode `json:"children"`
}

// MatrixSummary aggregates a rendered matrix for dashboard headers
type MatrixSummary struct {
	TotalMembers int            `json:"totalMembers"`
	Descendants  int            `json:"descendants"`
	MaxDepth     int            `json:"maxDepth"`
	ByLevel      map[int]int    `json:"byLevel"`
	ByCategory   map[string]int `json:"byCategory"`
}

// MatrixResponse is the payload of the team matrix endpoints
type MatrixResponse struct {
	Matrix  *MatrixNode   `json:"matrix"`
	Summary MatrixSummary `json:"summary"`
	Cached  bool          `json:"cached"`
}
