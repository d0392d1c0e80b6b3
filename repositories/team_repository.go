package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/ladli_lakshmi_backend/config"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

var ErrMemberNotFound = errors.New("team member not found")

type TeamRepository struct {
	collection *mongo.Collection
}

func NewTeamRepository(db *mongo.Database) *TeamRepository {
	return &TeamRepository{
		collection: db.Collection(config.TeamMembersCollection),
	}
}

func (r *TeamRepository) FindMember(ctx context.Context, memberID string) (*models.TeamMember, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var member models.TeamMember
	err := r.collection.FindOne(ctx, bson.M{"_id": memberID}).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find member: %w", err)
	}
	return &member, nil
}

// DeviceToken returns the FCM token stored for the member
func (r *TeamRepository) DeviceToken(ctx context.Context, memberID string) (string, error) {
	member, err := r.FindMember(ctx, memberID)
	if err != nil {
		return "", err
	}
	return member.FCMToken, nil
}

// AssignReferralCode sets code on a member that has none yet and returns the
// code the member ends up with
func (r *TeamRepository) AssignReferralCode(ctx context.Context, memberID, code string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"_id": memberID,
		"$or": bson.A{
			bson.M{"referralCode": bson.M{"$exists": false}},
			bson.M{"referralCode": ""},
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"referralCode": code}})
	if mongo.IsDuplicateKeyError(err) {
		return "", models.ErrReferralCodeTaken
	}
	if err != nil {
		return "", fmt.Errorf("failed to assign referral code: %w", err)
	}
	if result.ModifiedCount == 1 {
		return code, nil
	}

	// another request assigned one first
	member, err := r.FindMember(ctx, memberID)
	if err != nil {
		return "", err
	}
	return member.ReferralCode, nil
}

type downlineResult struct {
	models.TeamMember `bson:",inline"`
	Downline          []models.TeamMember `bson:"downline"`
}

// FindDownline loads the member and everyone below them, up to maxDepth
// levels plus one so that callers can tell a truncated tree from a complete one.
func (r *TeamRepository) FindDownline(ctx context.Context, rootID string, maxDepth int) (*models.TeamNode, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: rootID}}}},
		{{Key: "$graphLookup", Value: bson.D{
			{Key: "from", Value: config.TeamMembersCollection},
			{Key: "startWith", Value: "$_id"},
			{Key: "connectFromField", Value: "_id"},
			{Key: "connectToField", Value: "parentId"},
			{Key: "as", Value: "downline"},
			{Key: "maxDepth", Value: maxDepth},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to load downline: %w", err)
	}
	defer cursor.Close(ctx)

	var results []downlineResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode downline: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrMemberNotFound
	}

	return AssembleTree(results[0].TeamMember, results[0].Downline), nil
}

// AssembleTree links a flat downline under root by parentId. Siblings are
// ordered by position, then join date, then id. Members whose parent is not
// reachable from root are dropped.
func AssembleTree(root models.TeamMember, downline []models.TeamMember) *models.TeamNode {
	byParent := make(map[string][]models.TeamMember)
	for _, m := range downline {
		if m.ID == root.ID || m.ParentID == "" {
			continue
		}
		byParent[m.ParentID] = append(byParent[m.ParentID], m)
	}
	for _, siblings := range byParent {
		sort.SliceStable(siblings, func(i, j int) bool {
			a, b := siblings[i], siblings[j]
			if a.Position != b.Position {
				return a.Position < b.Position
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}

	rootNode := root.Node()
	placed := map[string]bool{root.ID: true}
	queue := []*models.TeamNode{rootNode}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, m := range byParent[parent.ID] {
			if placed[m.ID] {
				continue
			}
			placed[m.ID] = true
			child := m.Node()
			parent.Children = append(parent.Children, child)
			queue = append(queue, child)
		}
	}
	return rootNode
}
