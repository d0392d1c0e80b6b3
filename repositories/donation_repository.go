package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/HSouheill/ladli_lakshmi_backend/config"
	"github.com/HSouheill/ladli_lakshmi_backend/models"
)

var ErrDonationNotFound = errors.New("donation not found")

type DonationRepository struct {
	collection *mongo.Collection
}

func NewDonationRepository(db *mongo.Database) *DonationRepository {
	return &DonationRepository{
		collection: db.Collection(config.DonationsCollection),
	}
}

func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, donation); err != nil {
		return fmt.Errorf("failed to save donation: %w", err)
	}
	return nil
}

func (r *DonationRepository) FindByExternalID(ctx context.Context, externalID int64) (*models.Donation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var donation models.Donation
	err := r.collection.FindOne(ctx, bson.M{"externalId": externalID}).Decode(&donation)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrDonationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find donation: %w", err)
	}
	return &donation, nil
}

func (r *DonationRepository) SetCollectURL(ctx context.Context, externalID int64, collectURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"externalId": externalID},
		bson.M{"$set": bson.M{"collectUrl": collectURL}},
	)
	return err
}

// UpdateStatus records the latest collect status. Terminal statuses also
// stamp completedAt.
func (r *DonationRepository) UpdateStatus(ctx context.Context, externalID int64, status, payerPhone string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"status": status}
	if payerPhone != "" {
		set["payerPhone"] = payerPhone
	}
	if status == models.DonationSuccess || status == models.DonationFailed {
		set["completedAt"] = time.Now()
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"externalId": externalID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update donation: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrDonationNotFound
	}
	return nil
}
