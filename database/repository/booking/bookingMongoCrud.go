package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/vridhi-nahata/ServeGo-Backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Insert stores a new booking document.
func (repo *MongoBookingRepo) Insert(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctxWithTimeout, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID. A missing document is reported as
// (nil, nil) so callers can map it to their own not-found error.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"id": id}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &booking, nil
}

// FindOverlapping returns an active booking for the provider on the given day
// whose [from,to) slot overlaps the candidate slot, or nil when none exists.
// Two intervals [a,b) and [c,d) overlap iff a < d and c < b; "HH:MM" strings
// order lexicographically the same as chronologically.
func (repo *MongoBookingRepo) FindOverlapping(ctx context.Context, providerID string, date time.Time, slot models.TimeSlot) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	dayStart, dayEnd := dayBounds(date)
	filter := bson.M{
		"provider":      providerID,
		"date":          bson.M{"$gte": dayStart, "$lt": dayEnd},
		"timeSlot.from": bson.M{"$lt": slot.To},
		"timeSlot.to":   bson.M{"$gt": slot.From},
		// Rejected and cancelled bookings release their slot.
		"$expr": bson.M{"$not": bson.A{currentStatusIs(models.StatusRejected, models.StatusCancelled)}},
	}

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, filter).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error checking slot overlap for provider %s: %w", providerID, err)
	}
	return &booking, nil
}

// ListByProvider returns all bookings addressed to a provider, newest first.
func (repo *MongoBookingRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return repo.list(ctx, bson.M{"provider": providerID})
}

// ListByCustomer returns all bookings created by a customer, newest first.
func (repo *MongoBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return repo.list(ctx, bson.M{"customer": customerID})
}

// ListByProviderAndDate returns the provider's bookings on the given calendar day.
func (repo *MongoBookingRepo) ListByProviderAndDate(ctx context.Context, providerID string, date time.Time) ([]models.Booking, error) {
	dayStart, dayEnd := dayBounds(date)
	return repo.list(ctx, bson.M{
		"provider": providerID,
		"date":     bson.M{"$gte": dayStart, "$lt": dayEnd},
	})
}

// FindBySplitLink resolves the booking holding the given payment-link reference.
func (repo *MongoBookingRepo) FindBySplitLink(ctx context.Context, link string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"splitLinksSent.link": link}).Decode(&booking)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking by split link: %w", err)
	}
	return &booking, nil
}

func (repo *MongoBookingRepo) list(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
